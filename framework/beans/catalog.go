package beans

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// Catalog is the scan source: definitions registered under namespaces
// (usually Go import paths). A scan of a namespace returns the definitions
// of that namespace and of every namespace below it, in registration order.
//
//	catalog := beans.NewCatalog()
//	catalog.Register("github.com/acme/shop/application",
//	    beans.Component(NewProductService),
//	    beans.Service(NewPromotionService),
//	)
type Catalog struct {
	mu         sync.RWMutex
	defs       []*Definition
	namespaces map[string]struct{}
	installed  map[Module]struct{}
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		namespaces: make(map[string]struct{}),
		installed:  make(map[Module]struct{}),
	}
}

// Register adds definitions under namespace. Invalid definitions are
// rejected individually; valid ones in the same call are still registered.
func (c *Catalog) Register(namespace string, defs ...*Definition) error {
	ns := normalizeNamespace(namespace)
	if ns == "" {
		return fmt.Errorf("%w: empty namespace", ErrInvalidDefinition)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.namespaces[ns] = struct{}{}

	var errs error
	for _, d := range defs {
		switch {
		case d == nil:
			errs = multierr.Append(errs, fmt.Errorf("%w: nil definition in %s", ErrInvalidDefinition, ns))
		case d.err != nil:
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", d.typ, d.err))
		case d.namespace != "":
			errs = multierr.Append(errs, fmt.Errorf("%w: %s already registered in %s", ErrInvalidDefinition, d.typ, d.namespace))
		case c.hasType(ns, d):
			errs = multierr.Append(errs, fmt.Errorf("%w: %s registered twice in %s", ErrInvalidDefinition, d.typ, ns))
		default:
			d.namespace = ns
			c.defs = append(c.defs, d)
		}
	}
	return errs
}

func (c *Catalog) hasType(ns string, d *Definition) bool {
	for _, existing := range c.defs {
		if existing.namespace == ns && existing.typ == d.typ && existing.name == d.name {
			return true
		}
	}
	return false
}

// Scan returns every definition reachable under base. An unknown base is
// reported with ErrNamespaceNotFound.
func (c *Catalog) Scan(base string) ([]*Definition, error) {
	ns := normalizeNamespace(base)

	c.mu.RLock()
	defer c.mu.RUnlock()

	found := false
	for known := range c.namespaces {
		if under(known, ns) {
			found = true
			break
		}
	}
	if ns == "" || !found {
		return nil, fmt.Errorf("%w: %q", ErrNamespaceNotFound, base)
	}

	var out []*Definition
	for _, d := range c.defs {
		if under(d.namespace, ns) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Namespaces returns the registered namespaces, sorted.
func (c *Catalog) Namespaces() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.namespaces))
	for ns := range c.namespaces {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Definitions returns all definitions in registration order.
func (c *Catalog) Definitions() []*Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

func normalizeNamespace(ns string) string {
	return strings.TrimRight(strings.TrimSpace(ns), "/")
}

func under(ns, base string) bool {
	return ns == base || strings.HasPrefix(ns, base+"/")
}
