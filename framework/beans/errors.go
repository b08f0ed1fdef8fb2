package beans

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/event"
)

// ── Error kinds ───────────────────────────────────────────────────────────────

// Kind classifies a lifecycle failure.
type Kind string

const (
	// KindDiscovery means candidates could not be discovered at all. It is the
	// only fatal kind: the phase stops and nothing is instantiated.
	KindDiscovery Kind = "discovery"
	// KindConstruction covers missing or failing constructors.
	KindConstruction Kind = "construction"
	// KindInjection covers autowire failures (setter missing, ambiguity, ...).
	KindInjection Kind = "injection"
	// KindInvocation covers a lifecycle callback that returned an error or panicked.
	KindInvocation Kind = "invocation"
)

// Sentinel errors, wrapped by *BeanError.
var (
	ErrNamespaceNotFound    = errors.New("namespace not found")
	ErrNoConstructor        = errors.New("no zero-argument constructor")
	ErrNilBean              = errors.New("constructor returned nil")
	ErrDuplicateBean        = errors.New("bean name already registered")
	ErrSetterNotFound       = errors.New("setter not found")
	ErrTypeMismatch         = errors.New("bean type mismatch")
	ErrAmbiguousDependency  = errors.New("ambiguous dependency")
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrBeanNotFound         = errors.New("bean not found")
	ErrNotListener          = event.ErrNotListener
	ErrInvalidDefinition    = errors.New("invalid bean definition")
	ErrPanic                = errors.New("panic in lifecycle callback")
)

// ── BeanError ─────────────────────────────────────────────────────────────────

// BeanError reports a failure of one bean in one lifecycle step.
type BeanError struct {
	Bean string
	Kind Kind
	Op   string
	Err  error
}

func (e *BeanError) Error() string {
	if e.Bean == "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("bean %s: %s: %s: %v", e.Bean, e.Kind, e.Op, e.Err)
}

func (e *BeanError) Unwrap() error {
	return e.Err
}

// Is matches another *BeanError by bean and kind; empty fields act as wildcards.
func (e *BeanError) Is(target error) bool {
	t, ok := target.(*BeanError)
	if !ok {
		return false
	}
	return (e.Bean == "" || t.Bean == "" || e.Bean == t.Bean) &&
		(e.Kind == "" || t.Kind == "" || e.Kind == t.Kind)
}

func newBeanError(bean string, kind Kind, op string, err error) *BeanError {
	return &BeanError{Bean: bean, Kind: kind, Op: op, Err: err}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// BeanErrors flattens an aggregated phase error into its *BeanError parts.
// Errors that are not *BeanError are skipped.
//
//	if err := factory.PopulateProperties(); err != nil {
//	    for _, be := range beans.BeanErrors(err) { ... }
//	}
func BeanErrors(err error) []*BeanError {
	var out []*BeanError
	for _, e := range multierr.Errors(err) {
		var be *BeanError
		if errors.As(e, &be) {
			out = append(out, be)
		}
	}
	return out
}

// IsFatal reports whether err contains a discovery failure.
func IsFatal(err error) bool {
	return errors.Is(err, &BeanError{Kind: KindDiscovery})
}

// guard runs fn and converts a panic into an error wrapping ErrPanic.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
