// Package beans provides a Spring-style singleton bean factory for Go.
//
// # Overview
//
// Types are declared into a Catalog under a namespace (normally their import
// path). A Factory scans a namespace, constructs one instance per
// Component or Service definition and drives every bean through a fixed
// lifecycle:
//
//	instantiate → populate properties → name / factory awareness →
//	post-process before → AfterPropertiesSet → post-process after →
//	[running] → PreDestroy hooks → Destroy
//
// Go has no class-path scanning or annotations, so the markers Spring reads
// at runtime are declared explicitly and resolved once per definition.
//
// # Declaring beans
//
//	// Spring: @Component public class ProductService implements InitializingBean, DisposableBean
//	type ProductService struct {
//	    promotionService *PromotionService `autowire:""`
//	}
//
//	func (s *ProductService) SetPromotionService(p *PromotionService) { s.promotionService = p }
//	func (s *ProductService) AfterPropertiesSet() error              { return nil }
//	func (s *ProductService) Destroy() error                         { return nil }
//	func (s *ProductService) Destroy2() error                        { return nil }
//
//	catalog := beans.NewCatalog()
//	catalog.Register("github.com/acme/shop/application",
//	    beans.Component(NewProductService, beans.PreDestroy("destroy2", (*ProductService).Destroy2)),
//	    beans.Service(NewPromotionService, beans.Listens(event.For[event.ContextClosedEvent]())),
//	)
//
// # Running the lifecycle
//
//	factory := beans.NewFactory(catalog, beans.WithLogger(logger))
//	factory.AddPostProcessor(&CustomPostProcessor{})
//
//	if err := factory.Instantiate("github.com/acme/shop/application"); beans.IsFatal(err) {
//	    return err
//	}
//	_ = factory.PopulateProperties()
//	_ = factory.InjectBeanNames()
//	_ = factory.InitializeBeans()
//	defer factory.Close()
//
//	svc, err := beans.Resolve[*ProductService](factory, "productService")
//
// # Autowiring
//
// Fields tagged `autowire` are filled through their Set<Field> method with the
// single registered bean whose concrete type equals the field type. A
// qualifier selects a bean by name; "required" turns a missing match into an
// error. No match leaves the field unset; several matches are rejected with
// ErrAmbiguousDependency.
//
//	type Checkout struct {
//	    cart    *Cart          `autowire:""`
//	    payment *StripeGateway `autowire:"stripeGateway,required"`
//	}
//
// # Errors
//
// Only discovery failures are fatal. Construction, injection and callback
// failures are wrapped in *BeanError, logged, and returned as one aggregate
// per phase; use BeanErrors to inspect them.
package beans
