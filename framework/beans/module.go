package beans

import (
	"reflect"

	"go.uber.org/multierr"
)

// ── Module ────────────────────────────────────────────────────────────────────

// Module groups the definitions of one package so an application can
// install them with a single call.
//
//	type Module struct{}
//
//	func (Module) Register(c *beans.Catalog) error {
//	    return c.Register(Namespace,
//	        beans.Component(NewProductService),
//	        beans.Service(NewPromotionService),
//	    )
//	}
//
//	catalog.Install(application.Module{})
type Module interface {
	Register(c *Catalog) error
}

// ModuleFunc adapts a function to Module.
type ModuleFunc func(c *Catalog) error

func (fn ModuleFunc) Register(c *Catalog) error { return fn(c) }

// Install registers modules in order. A comparable module value installed
// twice is registered once.
func (c *Catalog) Install(modules ...Module) error {
	var errs error
	for _, m := range modules {
		if m == nil {
			continue
		}
		if !c.markInstalled(m) {
			continue
		}
		errs = multierr.Append(errs, m.Register(c))
	}
	return errs
}

func (c *Catalog) markInstalled(m Module) bool {
	if !reflect.ValueOf(m).Comparable() {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, done := c.installed[m]; done {
		return false
	}
	c.installed[m] = struct{}{}
	return true
}
