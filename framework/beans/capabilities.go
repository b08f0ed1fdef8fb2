package beans

import (
	"reflect"
	"strings"
)

// ── Capability contracts ──────────────────────────────────────────────────────

// NameAware beans receive their registry key.
//
//	// Spring: class PromotionService implements BeanNameAware
//	func (s *PromotionService) SetBeanName(name string) { s.beanName = name }
type NameAware interface {
	SetBeanName(name string)
}

// FactoryAware beans receive the factory that created them.
type FactoryAware interface {
	SetBeanFactory(f *Factory)
}

// Initializing beans get a callback once their properties are populated.
//
//	// Spring: InitializingBean.afterPropertiesSet()
type Initializing interface {
	AfterPropertiesSet() error
}

// Disposable beans get a callback when the factory closes.
//
//	// Spring: DisposableBean.destroy()
type Disposable interface {
	Destroy() error
}

// PostProcessor hooks into initialization of every bean. The returned value
// replaces the bean for all following steps and in the registry; returning
// nil keeps the current bean and skips the remaining processors.
//
//	// Spring: BeanPostProcessor
//	type Wrapper struct{}
//	func (Wrapper) PostProcessBeforeInitialization(bean any, name string) (any, error) { return bean, nil }
//	func (Wrapper) PostProcessAfterInitialization(bean any, name string) (any, error) {
//	    return &Proxy{Target: bean}, nil
//	}
type PostProcessor interface {
	PostProcessBeforeInitialization(bean any, name string) (any, error)
	PostProcessAfterInitialization(bean any, name string) (any, error)
}

// ── Capability set ────────────────────────────────────────────────────────────

// Capabilities is the set of lifecycle contracts a bean type participates in.
type Capabilities uint8

const (
	CapNameAware Capabilities = 1 << iota
	CapFactoryAware
	CapInitializing
	CapDisposable
	CapPostProcessor
	CapListener
	CapPreDestroy
)

var capabilityNames = []struct {
	c    Capabilities
	name string
}{
	{CapNameAware, "NameAware"},
	{CapFactoryAware, "FactoryAware"},
	{CapInitializing, "Initializing"},
	{CapDisposable, "Disposable"},
	{CapPostProcessor, "PostProcessor"},
	{CapListener, "Listener"},
	{CapPreDestroy, "PreDestroy"},
}

// Has reports whether every capability in c2 is present.
func (c Capabilities) Has(c2 Capabilities) bool { return c&c2 == c2 }

// Names lists the capabilities in declaration order.
func (c Capabilities) Names() []string {
	out := make([]string, 0, len(capabilityNames))
	for _, cn := range capabilityNames {
		if c.Has(cn.c) {
			out = append(out, cn.name)
		}
	}
	return out
}

func (c Capabilities) String() string {
	if c == 0 {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}

var (
	nameAwareType     = reflect.TypeFor[NameAware]()
	factoryAwareType  = reflect.TypeFor[FactoryAware]()
	initializingType  = reflect.TypeFor[Initializing]()
	disposableType    = reflect.TypeFor[Disposable]()
	postProcessorType = reflect.TypeFor[PostProcessor]()
)

// capabilitiesOf detects the interface-based capabilities of t.
func capabilitiesOf(t reflect.Type) Capabilities {
	if t == nil {
		return 0
	}
	var c Capabilities
	if t.Implements(nameAwareType) {
		c |= CapNameAware
	}
	if t.Implements(factoryAwareType) {
		c |= CapFactoryAware
	}
	if t.Implements(initializingType) {
		c |= CapInitializing
	}
	if t.Implements(disposableType) {
		c |= CapDisposable
	}
	if t.Implements(postProcessorType) {
		c |= CapPostProcessor
	}
	return c
}

// ── Stereotypes ───────────────────────────────────────────────────────────────

// Stereotype is the scan marker of a definition. Only Component and Service
// definitions are instantiated by a scan.
type Stereotype int

const (
	Plain Stereotype = iota
	ComponentStereotype
	ServiceStereotype
)

func (s Stereotype) String() string {
	switch s {
	case ComponentStereotype:
		return "component"
	case ServiceStereotype:
		return "service"
	default:
		return "plain"
	}
}

// Managed reports whether a scan instantiates definitions of this stereotype.
func (s Stereotype) Managed() bool {
	return s == ComponentStereotype || s == ServiceStereotype
}
