package application

import (
	"fmt"
	"io"

	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/app"
	"github.com/km-arc/go-spring/framework/beans"
)

// RunFactory drives the bean factory by hand: every phase, a check of the
// wiring, then close.
func RunFactory(out io.Writer, opts ...beans.FactoryOption) error {
	fmt.Fprintln(out, "===== ONLY FACTORY =====")

	catalog := beans.NewCatalog()
	if err := catalog.Install(Module{Out: out}); err != nil {
		return err
	}

	factory := beans.NewFactory(catalog, opts...)
	factory.AddPostProcessor(NewCustomPostProcessor(out))

	if err := factory.Instantiate(Namespace); beans.IsFatal(err) {
		return err
	}
	err := multierr.Combine(
		factory.PopulateProperties(),
		factory.InjectBeanNames(),
		factory.InitializeBeans(),
	)

	fmt.Fprintln(out, "!!! CHECK HAS STARTED !!!")
	productService, rerr := beans.Resolve[*ProductService](factory, "productService")
	if rerr != nil {
		return multierr.Combine(err, rerr, factory.Close())
	}
	fmt.Fprintf(out, "Checking that the ProductService bean exists: %T\n", productService)

	promotionService := productService.PromotionService()
	fmt.Fprintf(out, "Checking that the PromotionService bean exists: %T\n", promotionService)
	if promotionService != nil {
		fmt.Fprintln(out, "Promotion service bean name:", promotionService.BeanName())
	}
	fmt.Fprintln(out, "!!! CHECK ENDED !!!")

	return multierr.Append(err, factory.Close())
}

// RunContext starts an application context over the example namespace and
// closes it.
func RunContext(out io.Writer, opts ...app.Option) error {
	fmt.Fprintln(out, "===== FROM CONTEXT =====")

	catalog := beans.NewCatalog()
	if err := catalog.Install(Module{Out: out}); err != nil {
		return err
	}

	fmt.Fprintln(out, "******Context is under construction******")
	ctx, err := app.Run(catalog, Namespace, opts...)
	if beans.IsFatal(err) {
		return err
	}
	return multierr.Append(err, ctx.Close())
}
