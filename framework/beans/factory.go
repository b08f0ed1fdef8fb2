package beans

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ── Factory ───────────────────────────────────────────────────────────────────

// Factory is the singleton bean factory. It owns the registry and the
// post-processor list and exposes the lifecycle phases, which callers invoke
// once each, in this order:
//
//  1. Instantiate(basePackage): scan and construct marked definitions
//  2. PopulateProperties(): autowire fields through their setters
//  3. InjectBeanNames(): NameAware / FactoryAware callbacks
//  4. InitializeBeans(): post-processors and Initializing
//  5. Close(): PreDestroy hooks and Disposable
//
// Instantiate fails fast on discovery errors only. Every other failure is
// isolated to its bean, logged and returned in an aggregate at the end of
// the phase.
type Factory struct {
	mu sync.RWMutex

	catalog *Catalog

	// name → entry, plus registration order
	singletons map[string]*entry
	order      []string

	postProcessors []PostProcessor
	excludes       map[string]struct{}

	logger *zap.Logger
	closed bool
}

// entry is one registry slot. raw is what the constructor built; bean is
// what post-processors left behind and what GetBean returns.
type entry struct {
	name string
	def  *Definition
	caps Capabilities
	raw  any
	bean any
}

// FactoryOption configures a Factory.
type FactoryOption func(f *Factory)

// WithLogger sets the logger used for lifecycle reporting.
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithExcludes skips the named beans during Instantiate.
func WithExcludes(names ...string) FactoryOption {
	return func(f *Factory) {
		for _, n := range names {
			f.excludes[n] = struct{}{}
		}
	}
}

// NewFactory creates a factory scanning catalog.
//
//	// Spring: BeanFactory beanFactory = new BeanFactory();
//	factory := beans.NewFactory(catalog, beans.WithLogger(logger))
func NewFactory(catalog *Catalog, opts ...FactoryOption) *Factory {
	if catalog == nil {
		catalog = NewCatalog()
	}
	f := &Factory{
		catalog:    catalog,
		singletons: make(map[string]*entry),
		excludes:   make(map[string]struct{}),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ── Post-processors ───────────────────────────────────────────────────────────

// AddPostProcessor appends p; processors run in the order they were added.
//
//	// Spring: beanFactory.addPostProcessor(new CustomPostProcessor());
func (f *Factory) AddPostProcessor(p PostProcessor) {
	if p == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.postProcessors = append(f.postProcessors, p)
}

// PostProcessors returns a copy of the registered processors.
func (f *Factory) PostProcessors() []PostProcessor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]PostProcessor, len(f.postProcessors))
	copy(out, f.postProcessors)
	return out
}

// ── Phase 1: instantiate ──────────────────────────────────────────────────────

// Instantiate scans basePackage and constructs one singleton per Component
// or Service definition. An unknown package aborts with a KindDiscovery
// error; a failing constructor is reported and the scan goes on. When two
// definitions derive the same name, the first one wins.
//
//	// Spring: beanFactory.instantiate("com.appineco.spring.application");
func (f *Factory) Instantiate(basePackage string) error {
	defs, err := f.catalog.Scan(basePackage)
	if err != nil {
		return f.fail(newBeanError("", KindDiscovery, "scan "+basePackage, err))
	}

	f.logger.Info("instantiating beans",
		zap.String("package", basePackage),
		zap.Int("candidates", len(defs)),
	)

	var errs error
	for _, d := range defs {
		if !d.stereotype.Managed() {
			f.logger.Debug("skipping unmarked type", zap.Stringer("type", d.typ))
			continue
		}
		if _, skip := f.excludes[d.name]; skip {
			f.logger.Debug("bean excluded", zap.String("bean", d.name))
			continue
		}
		if f.holds(d) {
			f.logger.Debug("bean already instantiated", zap.String("bean", d.name))
			continue
		}
		if f.Contains(d.name) {
			errs = multierr.Append(errs, f.fail(newBeanError(d.name, KindConstruction, "register",
				fmt.Errorf("%w: %s", ErrDuplicateBean, d.typ))))
			continue
		}

		instance, err := d.instantiate()
		if err != nil {
			errs = multierr.Append(errs, f.fail(newBeanError(d.name, KindConstruction, "construct", err)))
			continue
		}

		if err := f.register(d, instance); err != nil {
			errs = multierr.Append(errs, f.fail(err))
			continue
		}
		f.logger.Debug("bean instantiated",
			zap.String("bean", d.name),
			zap.Stringer("type", reflect.TypeOf(instance)),
			zap.Stringer("stereotype", d.stereotype),
		)
	}
	return errs
}

func (f *Factory) register(d *Definition, instance any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.singletons[d.name]; exists {
		return newBeanError(d.name, KindConstruction, "register", fmt.Errorf("%w: %s", ErrDuplicateBean, d.typ))
	}
	f.singletons[d.name] = &entry{
		name: d.name,
		def:  d,
		caps: d.caps | capabilitiesOf(reflect.TypeOf(instance)),
		raw:  instance,
		bean: instance,
	}
	f.order = append(f.order, d.name)
	return nil
}

// ── Phase 2: populate properties ──────────────────────────────────────────────

// PopulateProperties autowires every marked field of every bean. A failing
// field does not affect other fields or beans.
//
//	// Spring: beanFactory.populateProperties();
func (f *Factory) PopulateProperties() error {
	f.logger.Info("populating properties")

	var errs error
	for _, e := range f.entries() {
		for _, s := range e.def.slots {
			if err := f.inject(e, s); err != nil {
				errs = multierr.Append(errs, f.fail(newBeanError(e.name, KindInjection, "autowire "+s.field, err)))
				continue
			}
			f.logger.Debug("field processed",
				zap.String("bean", e.name),
				zap.String("field", s.field),
				zap.Stringer("type", s.typ),
			)
		}
	}
	return errs
}

// ── Phase 3: awareness ────────────────────────────────────────────────────────

// InjectBeanNames calls SetBeanName on NameAware beans and SetBeanFactory on
// FactoryAware beans. Calling it again sets the same values.
//
//	// Spring: beanFactory.injectBeanNames();
func (f *Factory) InjectBeanNames() error {
	f.logger.Info("injecting bean names")

	var errs error
	for _, e := range f.entries() {
		if e.caps.Has(CapNameAware) {
			na := e.raw.(NameAware)
			if err := guard(func() error { na.SetBeanName(e.name); return nil }); err != nil {
				errs = multierr.Append(errs, f.fail(newBeanError(e.name, KindInvocation, "setBeanName", err)))
			}
		}
		if e.caps.Has(CapFactoryAware) {
			fa := e.raw.(FactoryAware)
			if err := guard(func() error { fa.SetBeanFactory(f); return nil }); err != nil {
				errs = multierr.Append(errs, f.fail(newBeanError(e.name, KindInvocation, "setBeanFactory", err)))
			}
		}
	}
	return errs
}

// ── Phase 4: initialize ───────────────────────────────────────────────────────

// InitializeBeans runs, per bean: every post-processor's before hook, the
// Initializing callback, every post-processor's after hook. The object
// returned by each hook replaces the bean for the next step and is stored
// back in the registry.
//
//	// Spring: beanFactory.initializeBeans();
func (f *Factory) InitializeBeans() error {
	f.logger.Info("initializing beans")

	processors := f.PostProcessors()
	var errs error
	for _, e := range f.entries() {
		if err := f.initialize(e, processors); err != nil {
			errs = multierr.Append(errs, f.fail(err))
		}
	}
	return errs
}

func (f *Factory) initialize(e *entry, processors []PostProcessor) error {
	bean := f.current(e)

	bean, err := applyProcessors(processors, bean, e.name, "postProcessBeforeInitialization",
		PostProcessor.PostProcessBeforeInitialization)
	if err != nil {
		f.store(e, bean)
		return err
	}

	caps := e.caps
	if !sameBean(bean, e.raw) {
		caps = capabilitiesOf(reflect.TypeOf(bean))
	}
	if caps.Has(CapInitializing) {
		if err := guard(bean.(Initializing).AfterPropertiesSet); err != nil {
			f.store(e, bean)
			return newBeanError(e.name, KindInvocation, "afterPropertiesSet", err)
		}
	}

	bean, err = applyProcessors(processors, bean, e.name, "postProcessAfterInitialization",
		PostProcessor.PostProcessAfterInitialization)
	f.store(e, bean)
	return err
}

type processorHook func(p PostProcessor, bean any, name string) (any, error)

// applyProcessors threads bean through every processor. A nil result keeps
// the current bean and ends the chain; an error ends it as well.
func applyProcessors(processors []PostProcessor, bean any, name, op string, hook processorHook) (any, error) {
	for _, p := range processors {
		var out any
		err := guard(func() error {
			var err error
			out, err = hook(p, bean, name)
			return err
		})
		if err != nil {
			return bean, newBeanError(name, KindInvocation, fmt.Sprintf("%s(%T)", op, p), err)
		}
		if isNil(out) {
			return bean, nil
		}
		bean = out
	}
	return bean, nil
}

func (f *Factory) current(e *entry) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return e.bean
}

func (f *Factory) store(e *entry, bean any) {
	f.mu.Lock()
	e.bean = bean
	f.mu.Unlock()

	if !sameBean(bean, e.raw) {
		f.logger.Debug("bean substituted by post-processor",
			zap.String("bean", e.name),
			zap.Stringer("type", reflect.TypeOf(bean)),
		)
	}
}

// ── Phase 5: close ────────────────────────────────────────────────────────────

// Close runs PreDestroy hooks and Disposable.Destroy for every bean, in
// reverse registration order. A failing bean does not stop the others.
// Beans stay in the registry; a second Close is a no-op.
//
//	// Spring: beanFactory.close();
func (f *Factory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	f.logger.Info("closing bean factory")

	entries := f.entries()
	var errs error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		for _, h := range e.def.preDestroy {
			if err := guard(func() error { return h.fn(e.raw) }); err != nil {
				errs = multierr.Append(errs, f.fail(newBeanError(e.name, KindInvocation, "preDestroy "+h.name, err)))
			}
		}
		if e.caps.Has(CapDisposable) {
			if err := guard(e.raw.(Disposable).Destroy); err != nil {
				errs = multierr.Append(errs, f.fail(newBeanError(e.name, KindInvocation, "destroy", err)))
			}
		}
		f.logger.Debug("bean destroyed", zap.String("bean", e.name))
	}
	return errs
}

// Closed reports whether Close has run.
func (f *Factory) Closed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.closed
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// entries snapshots the registry in registration order.
func (f *Factory) entries() []*entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*entry, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.singletons[name])
	}
	return out
}

// holds reports whether d itself was already instantiated, as happens when
// scanned base packages overlap.
func (f *Factory) holds(d *Definition) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.singletons[d.name]
	return ok && e.def == d
}

func (f *Factory) fail(err error) error {
	var be *BeanError
	if !errors.As(err, &be) {
		f.logger.Error("bean lifecycle failure", zap.Error(err))
		return err
	}
	f.logger.Error("bean lifecycle failure",
		zap.String("bean", be.Bean),
		zap.String("kind", string(be.Kind)),
		zap.String("op", be.Op),
		zap.Error(be.Err),
	)
	return err
}

// sameBean compares two bean references without panicking on
// uncomparable dynamic types.
func sameBean(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil || ta.Comparable() {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return va.Pointer() == vb.Pointer()
	}
	return true
}
