package beans

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"
)

// slot is one autowire-marked field.
//
// Tag syntax: `autowire:"[qualifier][,required]"`.
//
//	type ProductService struct {
//	    promotionService *PromotionService `autowire:""`
//	    audit            *AuditLog         `autowire:"auditLog,required"`
//	}
type slot struct {
	field     string
	typ       reflect.Type
	qualifier string
	required  bool
	setter    string
}

func autowireSlots(t reflect.Type) ([]slot, error) {
	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, nil
	}

	var (
		slots []slot
		errs  []error
	)
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		tag, ok := f.Tag.Lookup("autowire")
		if !ok {
			continue
		}
		qualifier, required, err := parseAutowireTag(tag)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", f.Name, err))
			continue
		}
		slots = append(slots, slot{
			field:     f.Name,
			typ:       f.Type,
			qualifier: qualifier,
			required:  required,
			setter:    "Set" + upperFirst(f.Name),
		})
	}
	return slots, multierr.Combine(errs...)
}

func parseAutowireTag(tag string) (qualifier string, required bool, err error) {
	parts := strings.Split(tag, ",")
	qualifier = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		switch strings.TrimSpace(p) {
		case "required":
			required = true
		case "":
		default:
			return "", false, fmt.Errorf("%w: unknown autowire option %q", ErrInvalidDefinition, p)
		}
	}
	return qualifier, required, nil
}

// ── Injection ─────────────────────────────────────────────────────────────────

// inject resolves s for e and hands the dependency to the bean's setter.
func (f *Factory) inject(e *entry, s slot) error {
	dep, err := f.resolveSlot(e, s)
	if err != nil || dep == nil {
		return err
	}

	m := reflect.ValueOf(e.raw).MethodByName(s.setter)
	if !m.IsValid() {
		return fmt.Errorf("%w: %T.%s", ErrSetterNotFound, e.raw, s.setter)
	}
	mt := m.Type()
	depValue := reflect.ValueOf(dep)
	if mt.NumIn() != 1 || !depValue.Type().AssignableTo(mt.In(0)) {
		return fmt.Errorf("%w: %s does not accept %s", ErrSetterNotFound, s.setter, depValue.Type())
	}

	return guard(func() error {
		out := m.Call([]reflect.Value{depValue})
		if len(out) == 1 {
			if err, ok := out[0].Interface().(error); ok && err != nil {
				return err
			}
		}
		return nil
	})
}

// resolveSlot finds the dependency for s. A nil result with a nil error
// means nothing matched and the field stays unset.
func (f *Factory) resolveSlot(e *entry, s slot) (any, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if s.qualifier != "" {
		c, ok := f.singletons[s.qualifier]
		if !ok {
			if s.required {
				return nil, fmt.Errorf("%w: no bean named %q", ErrUnresolvedDependency, s.qualifier)
			}
			return nil, nil
		}
		if got := reflect.TypeOf(c.raw); got != s.typ {
			return nil, fmt.Errorf("%w: bean %q is %s, field wants %s", ErrTypeMismatch, s.qualifier, got, s.typ)
		}
		return c.raw, nil
	}

	var matches []*entry
	for _, name := range f.order {
		c := f.singletons[name]
		if c == e {
			continue
		}
		if reflect.TypeOf(c.raw) == s.typ {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		if s.required {
			return nil, fmt.Errorf("%w: no bean of type %s", ErrUnresolvedDependency, s.typ)
		}
		return nil, nil
	case 1:
		return matches[0].raw, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.name
		}
		return nil, fmt.Errorf("%w: %d beans of type %s: %s", ErrAmbiguousDependency,
			len(matches), s.typ, strings.Join(names, ", "))
	}
}
