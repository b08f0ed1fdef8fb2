package beans

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/event"
)

// ── Definition ────────────────────────────────────────────────────────────────

// Definition describes one candidate type: how to build it and which
// lifecycle contracts it takes part in. Everything is resolved when the
// definition is created, not on every phase.
type Definition struct {
	namespace  string
	name       string
	typ        reflect.Type
	stereotype Stereotype
	construct  func() (any, error)
	caps       Capabilities
	slots      []slot
	preDestroy []hook
	listeners  []event.Binding
	err        error
}

type hook struct {
	name string
	fn   func(bean any) error
}

// Option customises a Definition.
type Option func(d *Definition)

// Component declares a component-marked type. A nil ctor falls back to a
// zero-value constructor when T is a pointer to a struct.
//
//	// Spring: @Component public class ProductService { ... }
//	beans.Component(NewProductService,
//	    beans.PreDestroy("destroy2", (*ProductService).Destroy2))
func Component[T any](ctor func() T, opts ...Option) *Definition {
	return define(ComponentStereotype, ctor, opts)
}

// Service declares a service-marked type. It behaves like Component.
//
//	// Spring: @Service public class PromotionService { ... }
func Service[T any](ctor func() T, opts ...Option) *Definition {
	return define(ServiceStereotype, ctor, opts)
}

// Type declares a type visible to scans but carrying no marker. Scans skip it.
func Type[T any](ctor func() T, opts ...Option) *Definition {
	return define(Plain, ctor, opts)
}

func define[T any](st Stereotype, ctor func() T, opts []Option) *Definition {
	t := reflect.TypeFor[T]()
	d := &Definition{
		name:       BeanName(t),
		typ:        t,
		stereotype: st,
		construct:  constructorFor(t, ctor),
		caps:       capabilitiesOf(t),
	}
	d.slots, d.err = autowireSlots(t)
	for _, opt := range opts {
		opt(d)
	}
	if d.name == "" {
		d.err = multierr.Append(d.err, fmt.Errorf("%w: type %s has no name", ErrInvalidDefinition, t))
	}
	return d
}

func constructorFor[T any](t reflect.Type, ctor func() T) func() (any, error) {
	if ctor != nil {
		return func() (any, error) {
			var v T
			if err := guard(func() error { v = ctor(); return nil }); err != nil {
				return nil, err
			}
			if isNil(v) {
				return nil, ErrNilBean
			}
			return v, nil
		}
	}
	if t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct {
		return func() (any, error) {
			return reflect.New(t.Elem()).Interface(), nil
		}
	}
	return nil
}

func (d *Definition) instantiate() (any, error) {
	if d.construct == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConstructor, d.typ)
	}
	return d.construct()
}

// ── Options ───────────────────────────────────────────────────────────────────

// Named overrides the derived bean name.
//
//	// Spring: @Component("catalog")
func Named(name string) Option {
	return func(d *Definition) {
		d.name = strings.TrimSpace(name)
	}
}

// PreDestroy adds a hook run before Disposable.Destroy when the factory
// closes. Hooks run in declaration order; a bean may declare any number.
//
//	// Spring: @PreDestroy public void destroy2() { ... }
//	beans.PreDestroy("destroy2", (*ProductService).Destroy2)
func PreDestroy[T any](name string, fn func(T) error) Option {
	return func(d *Definition) {
		if fn == nil {
			d.err = multierr.Append(d.err, fmt.Errorf("%w: pre-destroy hook %q is nil", ErrInvalidDefinition, name))
			return
		}
		if want := reflect.TypeFor[T](); want != d.typ {
			d.err = multierr.Append(d.err, fmt.Errorf("%w: pre-destroy hook %q takes %s, bean is %s",
				ErrTypeMismatch, name, want, d.typ))
			return
		}
		d.caps |= CapPreDestroy
		d.preDestroy = append(d.preDestroy, hook{
			name: name,
			fn: func(bean any) error {
				v, ok := bean.(T)
				if !ok {
					return fmt.Errorf("%w: %T", ErrTypeMismatch, bean)
				}
				return fn(v)
			},
		})
	}
}

// Listens declares the event types the bean accepts. The bean type must
// implement event.Listener[E] for each binding.
//
//	// Spring: class PromotionService implements ApplicationListener<ContextClosedEvent>
//	beans.Service(NewPromotionService, beans.Listens(event.For[event.ContextClosedEvent]()))
func Listens(bindings ...event.Binding) Option {
	return func(d *Definition) {
		for _, b := range bindings {
			if !b.AcceptedBy(d.typ) {
				d.err = multierr.Append(d.err, fmt.Errorf("%w: %s for %s", ErrNotListener, d.typ, b))
				continue
			}
			if d.listensTo(b) {
				continue
			}
			d.caps |= CapListener
			d.listeners = append(d.listeners, b)
		}
	}
}

func (d *Definition) listensTo(b event.Binding) bool {
	for _, l := range d.listeners {
		if l.EventType() == b.EventType() {
			return true
		}
	}
	return false
}

// ── Accessors ─────────────────────────────────────────────────────────────────

// Name returns the registry key the bean is stored under.
func (d *Definition) Name() string { return d.name }

// Namespace returns the namespace the definition was registered in, or "".
func (d *Definition) Namespace() string { return d.namespace }

// Type returns the declared bean type.
func (d *Definition) Type() reflect.Type { return d.typ }

// Stereotype reports whether the type is a component, a service or unmarked.
func (d *Definition) Stereotype() Stereotype { return d.stereotype }

// Capabilities returns the capabilities resolved from the declared type and options.
func (d *Definition) Capabilities() Capabilities { return d.caps }

// Listeners returns the declared event bindings.
func (d *Definition) Listeners() []event.Binding {
	out := make([]event.Binding, len(d.listeners))
	copy(out, d.listeners)
	return out
}

// Autowired returns the names of the autowire-marked fields.
func (d *Definition) Autowired() []string {
	out := make([]string, 0, len(d.slots))
	for _, s := range d.slots {
		out = append(out, s.field)
	}
	return out
}

// ── Naming ────────────────────────────────────────────────────────────────────

// BeanName derives the registry key of t: its simple name with the first
// rune lower-cased. Pointers and generic type arguments are stripped.
//
//	BeanName(reflect.TypeFor[*ProductService]()) // "productService"
func BeanName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return lowerFirst(name)
}

func lowerFirst(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

func upperFirst(s string) string {
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
