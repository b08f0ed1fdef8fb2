package event

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ListenerError reports one listener that failed to handle an event.
type ListenerError struct {
	Listener string
	Event    string
	Err      error
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s: %s: %v", e.Listener, e.Event, e.Err)
}

func (e *ListenerError) Unwrap() error { return e.Err }

type registration struct {
	name     string
	listener any
	binding  Binding
}

// Multicaster delivers events to subscribed listeners in subscription order.
type Multicaster struct {
	mu            sync.RWMutex
	registrations []registration
	logger        *zap.Logger
}

// NewMulticaster creates an empty multicaster. A nil logger is replaced by a no-op one.
func NewMulticaster(logger *zap.Logger) *Multicaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multicaster{logger: logger}
}

// Subscribe registers listener under name for the binding's event type.
// Subscribing the same name twice for the same event type is ignored, so a
// listener is notified once per event.
func (m *Multicaster) Subscribe(name string, listener any, b Binding) error {
	if listener == nil {
		return fmt.Errorf("%w: %s is nil", ErrNotListener, name)
	}
	if !b.AcceptedBy(reflect.TypeOf(listener)) {
		return fmt.Errorf("%w: %s (%T) for %s", ErrNotListener, name, listener, b)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.registrations {
		if r.name == name && r.binding.eventType == b.eventType {
			return nil
		}
	}
	m.registrations = append(m.registrations, registration{name: name, listener: listener, binding: b})

	m.logger.Debug("listener subscribed",
		zap.String("listener", name),
		zap.Stringer("event", b),
	)
	return nil
}

// Multicast delivers e to every matching listener. A failing or panicking
// listener does not stop delivery to the others; failures are returned as
// one aggregated error of *ListenerError values.
func (m *Multicaster) Multicast(e Event) error {
	if e == nil {
		return errors.New("event cannot be nil")
	}

	m.mu.RLock()
	regs := make([]registration, len(m.registrations))
	copy(regs, m.registrations)
	m.mu.RUnlock()

	eventName := reflect.TypeOf(e).String()
	var errs error
	delivered := 0
	for _, r := range regs {
		if !r.binding.Matches(e) {
			continue
		}
		delivered++
		if err := deliver(r, e); err != nil {
			m.logger.Error("listener failed",
				zap.String("listener", r.name),
				zap.String("event", eventName),
				zap.Error(err),
			)
			errs = multierr.Append(errs, &ListenerError{Listener: r.name, Event: eventName, Err: err})
		}
	}

	m.logger.Debug("event multicast",
		zap.String("event", eventName),
		zap.Int("listeners", delivered),
	)
	return errs
}

// Listeners returns the names subscribed to events like e, in order.
func (m *Multicaster) Listeners(e Event) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, r := range m.registrations {
		if r.binding.Matches(e) {
			out = append(out, r.name)
		}
	}
	return out
}

func deliver(r registration, e Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return r.binding.Deliver(r.listener, e)
}
