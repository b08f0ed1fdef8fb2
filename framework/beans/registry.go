package beans

import (
	"fmt"
	"reflect"
)

// ── Lookup ────────────────────────────────────────────────────────────────────

// GetBean returns the current instance registered under name.
//
//	// Spring: beanFactory.getBean("productService")
//	bean, ok := factory.GetBean("productService")
func (f *Factory) GetBean(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.singletons[name]
	if !ok {
		return nil, false
	}
	return e.bean, true
}

// Contains reports whether name is registered.
func (f *Factory) Contains(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.singletons[name]
	return ok
}

// Resolve looks up name and asserts it to T.
//
//	svc, err := beans.Resolve[*ProductService](factory, "productService")
func Resolve[T any](f *Factory, name string) (T, error) {
	var zero T
	bean, ok := f.GetBean(name)
	if !ok {
		return zero, newBeanError(name, "", "resolve", ErrBeanNotFound)
	}
	typed, ok := bean.(T)
	if !ok {
		return zero, newBeanError(name, "", "resolve",
			fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, bean, reflect.TypeFor[T]()))
	}
	return typed, nil
}

// BeansOfType returns every bean whose current instance is a T, keyed by name.
//
//	// Spring: context.getBeansOfType(PaymentGateway.class)
//	gateways := beans.BeansOfType[PaymentGateway](factory)
func BeansOfType[T any](f *Factory) map[string]T {
	out := make(map[string]T)
	for _, e := range f.entries() {
		if typed, ok := f.current(e).(T); ok {
			out[e.name] = typed
		}
	}
	return out
}

// Singletons returns a snapshot of name → current instance.
func (f *Factory) Singletons() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]any, len(f.singletons))
	for name, e := range f.singletons {
		out[name] = e.bean
	}
	return out
}

// Names returns the bean names in registration order.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of registered beans.
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

// Definition returns the definition the named bean was built from.
func (f *Factory) Definition(name string) (*Definition, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.singletons[name]
	if !ok {
		return nil, false
	}
	return e.def, true
}

// ── Introspection ─────────────────────────────────────────────────────────────

// BeanInfo is a read-only description of a registered bean.
type BeanInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Namespace    string   `json:"namespace"`
	Stereotype   string   `json:"stereotype"`
	Capabilities []string `json:"capabilities"`
	Autowired    []string `json:"autowired,omitempty"`
	Listens      []string `json:"listens,omitempty"`
	Substituted  bool     `json:"substituted"`
}

// Beans describes every bean in registration order.
func (f *Factory) Beans() []BeanInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]BeanInfo, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, describe(f.singletons[name]))
	}
	return out
}

// Describe returns the BeanInfo of one bean.
func (f *Factory) Describe(name string) (BeanInfo, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.singletons[name]
	if !ok {
		return BeanInfo{}, false
	}
	return describe(e), true
}

func describe(e *entry) BeanInfo {
	listens := make([]string, 0, len(e.def.listeners))
	for _, b := range e.def.listeners {
		listens = append(listens, b.String())
	}
	return BeanInfo{
		Name:         e.name,
		Type:         reflect.TypeOf(e.bean).String(),
		Namespace:    e.def.namespace,
		Stereotype:   e.def.stereotype.String(),
		Capabilities: e.caps.Names(),
		Autowired:    e.def.Autowired(),
		Listens:      listens,
		Substituted:  !sameBean(e.bean, e.raw),
	}
}
