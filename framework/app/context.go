// Package app provides the application context: the façade that runs the
// bean factory phases in order, wires event listeners and publishes the
// refreshed and closed events.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-spring/framework/beans"
	"github.com/km-arc/go-spring/framework/config"
	"github.com/km-arc/go-spring/framework/event"
	"github.com/km-arc/go-spring/framework/metrics"
)

// ErrClosed is returned by Refresh and PublishEvent after Close.
var ErrClosed = errors.New("application context is closed")

// Context is the application context. It embeds nothing: the factory is
// reached through Factory() and beans through GetBean.
//
//	// Spring: ApplicationContext context = new ApplicationContext("com.appineco.spring.application");
//	ctx, err := app.Run(catalog, "github.com/acme/shop/application")
type Context struct {
	id      string
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector

	factory     *beans.Factory
	multicaster *event.Multicaster

	mu        sync.Mutex
	startup   time.Time
	refreshed bool
	closed    bool
}

// Option configures a Context.
type Option func(o *options)

type options struct {
	cfg            *config.Config
	logger         *zap.Logger
	metrics        *metrics.Collector
	postProcessors []beans.PostProcessor
	excludes       []string
}

// WithConfig supplies the loaded configuration. Its scan exclusions are applied.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger shared by the context, its factory and its multicaster.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPostProcessors registers processors ahead of any processor beans.
func WithPostProcessors(ps ...beans.PostProcessor) Option {
	return func(o *options) { o.postProcessors = append(o.postProcessors, ps...) }
}

// WithMetrics times bean initialization and records lifecycle errors.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithExcludes skips the named beans.
func WithExcludes(names ...string) Option {
	return func(o *options) { o.excludes = append(o.excludes, names...) }
}

// New creates an inactive context over catalog. Call Refresh to start it.
func New(catalog *beans.Catalog, opts ...Option) *Context {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.cfg != nil {
		o.excludes = append(o.excludes, o.cfg.Scan.Exclude...)
	}

	id := uuid.NewString()
	logger := o.logger.With(zap.String("context", id))

	factory := beans.NewFactory(catalog,
		beans.WithLogger(logger),
		beans.WithExcludes(o.excludes...),
	)
	if o.metrics != nil {
		factory.AddPostProcessor(o.metrics)
	}
	for _, p := range o.postProcessors {
		factory.AddPostProcessor(p)
	}

	return &Context{
		id:          id,
		cfg:         o.cfg,
		logger:      logger,
		metrics:     o.metrics,
		factory:     factory,
		multicaster: event.NewMulticaster(logger),
	}
}

// Run creates a context and refreshes it with basePackage. An empty
// basePackage scans the packages configured with WithConfig instead.
func Run(catalog *beans.Catalog, basePackage string, opts ...Option) (*Context, error) {
	c := New(catalog, opts...)
	packages := []string{basePackage}
	if basePackage == "" && c.cfg != nil {
		packages = c.cfg.Scan.BasePackages
	}
	return c, c.Refresh(packages...)
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Refresh instantiates every base package, registers processor beans, then
// populates, names and initializes all beans, subscribes listeners and
// publishes ContextRefreshedEvent.
//
// A discovery failure aborts the refresh and leaves the context inactive.
// Any other failure is isolated to its bean: the context becomes active and
// the failures are returned together.
func (c *Context) Refresh(basePackages ...string) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.refreshed:
		c.mu.Unlock()
		return errors.New("application context already refreshed")
	}
	c.mu.Unlock()

	if len(basePackages) == 0 {
		return errors.New("no base package to scan")
	}

	start := time.Now()
	c.logger.Info("refreshing application context", zap.Strings("packages", basePackages))

	var errs error
	for _, pkg := range basePackages {
		err := c.factory.Instantiate(pkg)
		if beans.IsFatal(err) {
			c.record(err)
			return err
		}
		errs = multierr.Append(errs, err)
	}

	c.registerPostProcessors()

	errs = multierr.Append(errs, c.factory.PopulateProperties())
	errs = multierr.Append(errs, c.factory.InjectBeanNames())
	errs = multierr.Append(errs, c.factory.InitializeBeans())
	errs = multierr.Append(errs, c.registerListeners())

	c.mu.Lock()
	c.refreshed = true
	c.startup = time.Now()
	c.mu.Unlock()

	errs = multierr.Append(errs, c.multicaster.Multicast(event.NewContextRefreshedEvent(c)))

	c.record(errs)
	if c.metrics != nil {
		c.metrics.ObserveFactory(c.factory)
		c.metrics.RecordRefresh()
	}
	c.logger.Info("application context refreshed",
		zap.Int("beans", c.factory.Len()),
		zap.Int("failures", len(multierr.Errors(errs))),
		zap.Duration("took", time.Since(start)),
	)
	return errs
}

// registerPostProcessors adds beans with the PostProcessor capability to the
// factory, in registration order, after the processors given as options.
// Processor beans are applied to every bean, themselves included.
func (c *Context) registerPostProcessors() {
	for _, name := range c.factory.Names() {
		def, _ := c.factory.Definition(name)
		if !def.Capabilities().Has(beans.CapPostProcessor) {
			continue
		}
		bean, _ := c.factory.GetBean(name)
		p, ok := bean.(beans.PostProcessor)
		if !ok {
			continue
		}
		c.factory.AddPostProcessor(p)
		c.logger.Debug("post-processor bean registered", zap.String("bean", name))
	}
}

// registerListeners subscribes every bean declared with beans.Listens, using
// the instance left behind by post-processors.
func (c *Context) registerListeners() error {
	var errs error
	for _, name := range c.factory.Names() {
		def, _ := c.factory.Definition(name)
		bindings := def.Listeners()
		if len(bindings) == 0 {
			continue
		}
		bean, _ := c.factory.GetBean(name)
		for _, b := range bindings {
			if err := c.multicaster.Subscribe(name, bean, b); err != nil {
				c.logger.Warn("listener not subscribed", zap.String("bean", name), zap.Error(err))
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}

// Close destroys every bean, then publishes ContextClosedEvent. Listeners
// therefore observe the event after all destroy callbacks have run. A second
// Close is a no-op.
//
//	// Spring: context.close();
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	refreshed := c.refreshed
	c.mu.Unlock()

	c.logger.Info("closing application context")

	errs := c.factory.Close()
	if refreshed {
		errs = multierr.Append(errs, c.multicaster.Multicast(event.NewContextClosedEvent(c)))
	}
	c.record(errs)
	return errs
}

// PublishEvent delivers e to every matching listener.
func (c *Context) PublishEvent(e event.Event) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return c.multicaster.Multicast(e)
}

func (c *Context) record(err error) {
	if err != nil && c.metrics != nil {
		c.metrics.RecordErrors(err)
	}
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// ID returns the context's unique id.
func (c *Context) ID() string { return c.id }

// StartupDate returns when the last refresh completed, or the zero time.
func (c *Context) StartupDate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startup
}

// IsActive reports whether the context is refreshed and not yet closed.
func (c *Context) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshed && !c.closed
}

// GetBean returns the bean registered under name.
//
//	// Spring: context.getBean("productService")
func (c *Context) GetBean(name string) (any, bool) { return c.factory.GetBean(name) }

// Factory returns the underlying bean factory.
func (c *Context) Factory() *beans.Factory { return c.factory }

// Beans describes every registered bean.
func (c *Context) Beans() []beans.BeanInfo { return c.factory.Beans() }

// Config returns the configuration given with WithConfig, or nil.
func (c *Context) Config() *config.Config { return c.cfg }

// Logger returns the context's logger.
func (c *Context) Logger() *zap.Logger { return c.logger }

// Metrics returns the collector given with WithMetrics, or nil.
func (c *Context) Metrics() *metrics.Collector { return c.metrics }

// Environment returns APP_ENV, or "local" without configuration.
func (c *Context) Environment() string {
	if c.cfg == nil {
		return "local"
	}
	return c.cfg.App.Env
}

func (c *Context) String() string {
	return fmt.Sprintf("ApplicationContext[%s]", c.id)
}
