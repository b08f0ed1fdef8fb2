// Package event carries application events from the context to listener
// beans.
//
// Listener registration is explicit: a bean declares the event types it
// accepts with For[E]() bindings, so dispatch compares concrete event types
// instead of recovering generic parameters at runtime.
//
//	type Auditor struct{}
//	func (a *Auditor) OnApplicationEvent(e event.ContextClosedEvent) error { ... }
//
//	beans.Service(NewAuditor, beans.Listens(event.For[event.ContextClosedEvent]()))
package event

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	// ErrNotListener means a value does not implement Listener for the bound event type.
	ErrNotListener = errors.New("bean does not implement the listener contract")
	// ErrEventMismatch means an event was delivered through a binding for another type.
	ErrEventMismatch = errors.New("event type does not match binding")
)

// Event is anything published through a Multicaster.
type Event interface {
	Source() any
	Timestamp() time.Time
}

// Base is an embeddable Event implementation.
type Base struct {
	source any
	at     time.Time
}

// NewBase stamps an event with its source and the current time.
func NewBase(source any) Base {
	return Base{source: source, at: time.Now()}
}

// Source returns the object that published the event.
func (b Base) Source() any { return b.source }

// Timestamp returns when the event was created.
func (b Base) Timestamp() time.Time { return b.at }

// ContextRefreshedEvent is published once every bean finished initialization.
type ContextRefreshedEvent struct{ Base }

// ContextClosedEvent is published after the bean factory was closed.
type ContextClosedEvent struct{ Base }

// NewContextRefreshedEvent creates the refreshed event published by source.
func NewContextRefreshedEvent(source any) ContextRefreshedEvent {
	return ContextRefreshedEvent{Base: NewBase(source)}
}

// NewContextClosedEvent creates the closed event published by source.
func NewContextClosedEvent(source any) ContextClosedEvent {
	return ContextClosedEvent{Base: NewBase(source)}
}

// ── Listener contract ─────────────────────────────────────────────────────────

// Listener receives events of type E.
//
//	// Spring: ApplicationListener<ContextClosedEvent>
//	func (s *PromotionService) OnApplicationEvent(e event.ContextClosedEvent) error
type Listener[E Event] interface {
	OnApplicationEvent(e E) error
}

// Binding is the type tag a bean declares for one accepted event type.
type Binding struct {
	eventType    reflect.Type
	listenerType reflect.Type
	deliver      func(listener any, e Event) error
}

// For creates the binding for events of type E. When E is an interface,
// every event implementing it matches.
func For[E Event]() Binding {
	return Binding{
		eventType:    reflect.TypeFor[E](),
		listenerType: reflect.TypeFor[Listener[E]](),
		deliver: func(listener any, e Event) error {
			l, ok := listener.(Listener[E])
			if !ok {
				return fmt.Errorf("%w: %T is not a Listener[%s]", ErrNotListener, listener, reflect.TypeFor[E]())
			}
			typed, ok := e.(E)
			if !ok {
				return fmt.Errorf("%w: %T", ErrEventMismatch, e)
			}
			return l.OnApplicationEvent(typed)
		},
	}
}

// EventType returns the tagged event type.
func (b Binding) EventType() reflect.Type { return b.eventType }

// AcceptedBy reports whether values of type t implement Listener[E].
func (b Binding) AcceptedBy(t reflect.Type) bool {
	return b.listenerType != nil && t != nil && t.Implements(b.listenerType)
}

// Matches reports whether e should be delivered through this binding.
func (b Binding) Matches(e Event) bool {
	if e == nil || b.eventType == nil {
		return false
	}
	et := reflect.TypeOf(e)
	if b.eventType.Kind() == reflect.Interface {
		return et.Implements(b.eventType)
	}
	return et == b.eventType
}

// Deliver hands e to listener.
func (b Binding) Deliver(listener any, e Event) error {
	if b.deliver == nil {
		return ErrEventMismatch
	}
	return b.deliver(listener, e)
}

// String returns the bound event type, or "<none>" for the zero Binding.
func (b Binding) String() string {
	if b.eventType == nil {
		return "<none>"
	}
	return b.eventType.String()
}
