// Package application is a small shop wired by the bean container. It is
// what the CLI's factory and context commands run.
package application

import (
	"fmt"
	"io"

	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/event"
)

// Namespace is the base package the example beans are registered under.
const Namespace = "github.com/km-arc/go-spring/example/application"

// ── ProductService ───────────────────────────────────────────────────────────

// ProductService is a component with init and destroy callbacks and an
// autowired PromotionService.
type ProductService struct {
	out              io.Writer
	promotionService *PromotionService `autowire:""`
}

func (s *ProductService) SetPromotionService(p *PromotionService) { s.promotionService = p }
func (s *ProductService) PromotionService() *PromotionService    { return s.promotionService }

func (s *ProductService) AfterPropertiesSet() error {
	fmt.Fprintln(s.out, "ProductService init...")
	return nil
}

func (s *ProductService) Destroy() error {
	fmt.Fprintln(s.out, "ProductService destroy...")
	return nil
}

// Destroy2 is registered as a pre-destroy hook.
func (s *ProductService) Destroy2() error {
	fmt.Fprintln(s.out, "ProductService @PreDestroy...")
	return nil
}

// ── PromotionService ─────────────────────────────────────────────────────────

// PromotionService learns its bean name and listens for the context closing.
type PromotionService struct {
	out      io.Writer
	beanName string
}

func (s *PromotionService) SetBeanName(name string) { s.beanName = name }
func (s *PromotionService) BeanName() string        { return s.beanName }

func (s *PromotionService) OnApplicationEvent(event.ContextClosedEvent) error {
	fmt.Fprintln(s.out, ">> ContextClosed EVENT")
	return nil
}

// ── CustomPostProcessor ──────────────────────────────────────────────────────

// CustomPostProcessor prints every bean it sees. It lives in the namespace
// unmarked, so scanning skips it; the factory demo adds it by hand.
type CustomPostProcessor struct {
	out io.Writer
}

func NewCustomPostProcessor(out io.Writer) *CustomPostProcessor {
	return &CustomPostProcessor{out: out}
}

func (p *CustomPostProcessor) PostProcessBeforeInitialization(bean any, name string) (any, error) {
	fmt.Fprintln(p.out, "---CustomPostProcessor Before", name)
	return bean, nil
}

func (p *CustomPostProcessor) PostProcessAfterInitialization(bean any, name string) (any, error) {
	fmt.Fprintln(p.out, "---CustomPostProcessor After", name)
	return bean, nil
}

// ── Module ───────────────────────────────────────────────────────────────────

// Module registers the example beans, printing to Out.
type Module struct {
	Out io.Writer
}

func (m Module) Register(c *beans.Catalog) error {
	out := m.Out
	if out == nil {
		out = io.Discard
	}
	return c.Register(Namespace,
		beans.Component(func() *ProductService { return &ProductService{out: out} },
			beans.PreDestroy("destroy2", (*ProductService).Destroy2)),
		beans.Service(func() *PromotionService { return &PromotionService{out: out} },
			beans.Listens(event.For[event.ContextClosedEvent]())),
		beans.Type(func() *CustomPostProcessor { return NewCustomPostProcessor(out) }),
	)
}
