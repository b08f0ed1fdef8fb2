package beans_test

import (
	"errors"

	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/event"
)

const ns = "github.com/acme/shop/application"

// journal records lifecycle callbacks in the order they happen.
type journal struct{ calls []string }

func (j *journal) add(s string) { j.calls = append(j.calls, s) }

// ── fixtures ──────────────────────────────────────────────────────────────────

type PromotionService struct {
	beanName string
	closed   int
}

func (s *PromotionService) SetBeanName(name string) { s.beanName = name }
func (s *PromotionService) BeanName() string        { return s.beanName }

func (s *PromotionService) OnApplicationEvent(event.ContextClosedEvent) error {
	s.closed++
	return nil
}

type ProductService struct {
	j                *journal
	promotionService *PromotionService `autowire:""`
	initCalls        int
	destroyCalls     int
	preDestroyCalls  int
}

func (s *ProductService) SetPromotionService(p *PromotionService) { s.promotionService = p }
func (s *ProductService) PromotionService() *PromotionService    { return s.promotionService }

func (s *ProductService) AfterPropertiesSet() error {
	s.initCalls++
	if s.j != nil {
		s.j.add("init:productService")
	}
	return nil
}

func (s *ProductService) Destroy() error {
	s.destroyCalls++
	if s.j != nil {
		s.j.add("destroy:productService")
	}
	return nil
}

func (s *ProductService) Destroy2() error {
	s.preDestroyCalls++
	if s.j != nil {
		s.j.add("preDestroy:productService")
	}
	return nil
}

// Missing has no matching bean.
type Missing struct{}

type Lonely struct {
	missing *Missing `autowire:""`
}

func (l *Lonely) SetMissing(m *Missing) { l.missing = m }

// NoSetter autowires a field without a setter.
type NoSetter struct {
	promotionService *PromotionService `autowire:""`
}

type Wants struct {
	promotion *PromotionService `autowire:"promo,required"`
}

func (w *Wants) SetPromotion(p *PromotionService) { w.promotion = p }

type Cart struct{}

type Checkout struct {
	cart *Cart `autowire:""`
}

func (c *Checkout) SetCart(cart *Cart) { c.cart = cart }

type failingDisposable struct{ calls int }

func (d *failingDisposable) Destroy() error {
	d.calls++
	return errors.New("disk on fire")
}

type panickingDisposable struct{ calls int }

func (d *panickingDisposable) Destroy() error {
	d.calls++
	panic("boom")
}

type okDisposable struct{ calls int }

func (d *okDisposable) Destroy() error {
	d.calls++
	return nil
}

// ── post-processors ───────────────────────────────────────────────────────────

type recordingProcessor struct {
	id string
	j  *journal
}

func (p *recordingProcessor) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	p.j.add("before:" + p.id + ":" + name)
	return bean, nil
}

func (p *recordingProcessor) PostProcessAfterInitialization(bean any, name string) (any, error) {
	p.j.add("after:" + p.id + ":" + name)
	return bean, nil
}

// WrappedProductService is what wrappingProcessor substitutes.
type WrappedProductService struct {
	*ProductService
	Marker string
}

type wrappingProcessor struct{}

func (wrappingProcessor) PostProcessBeforeInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

func (wrappingProcessor) PostProcessAfterInitialization(bean any, name string) (any, error) {
	if p, ok := bean.(*ProductService); ok && name == "productService" {
		return &WrappedProductService{ProductService: p, Marker: "[wrapped]"}, nil
	}
	return bean, nil
}

type failingProcessor struct{}

func (failingProcessor) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	if name == "productService" {
		return nil, errors.New("rejected")
	}
	return bean, nil
}

func (failingProcessor) PostProcessAfterInitialization(bean any, _ string) (any, error) {
	return bean, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func shopCatalog(j *journal) *beans.Catalog {
	c := beans.NewCatalog()
	_ = c.Register(ns,
		beans.Component(func() *ProductService { return &ProductService{j: j} },
			beans.PreDestroy("destroy2", (*ProductService).Destroy2)),
		beans.Service(func() *PromotionService { return &PromotionService{} },
			beans.Listens(event.For[event.ContextClosedEvent]())),
	)
	return c
}

func bootstrap(f *beans.Factory) error {
	if err := f.Instantiate(ns); beans.IsFatal(err) {
		return err
	}
	_ = f.PopulateProperties()
	_ = f.InjectBeanNames()
	return f.InitializeBeans()
}
