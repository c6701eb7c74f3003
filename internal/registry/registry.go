package registry

import (
	"errors"
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"

	"github.com/cdeil/imexam/internal/pixels"
)

// QuitKey terminates the examination session. It can never be bound.
const QuitKey = "q"

var ErrInvalidBinding = errors.New("registry: invalid binding")

// Params holds the tunable settings of one analysis routine, e.g.
// aperture radius or histogram bin count.
type Params map[string]float64

func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// HandlerFunc is an analysis routine bound to a key. It reads the
// pixel buffer around the cursor position and produces a plot or a
// textual report as its side effect. The session logs a returned
// error but does not otherwise interpret it.
type HandlerFunc func(buf *pixels.Buffer, x, y float64, p Params) error

// Binding associates a key with a handler, a one-line description for
// the help listing, and the handler's parameter record.
type Binding struct {
	Key         string
	Description string
	Handler     HandlerFunc
	Params      Params
}

type entry struct {
	binding  Binding
	defaults Params
}

// Registry maps single-character keys to analysis bindings. Lookup is
// exact and case-sensitive. Listing preserves first-registration
// order, so built-ins come before user additions.
type Registry struct {
	order    []string
	bindings map[string]*entry
}

func New() *Registry {
	return &Registry{
		bindings: make(map[string]*entry),
	}
}

// Register adds or overwrites bindings. Re-registering a key replaces
// the prior binding (last write wins) without changing its position in
// the key listing; shadowing a built-in is allowed. Keys new in one
// call are appended in sorted key order so listing stays
// deterministic. The parameter record passed here becomes the
// binding's default for UnlearnAll.
func (r *Registry) Register(bindings map[string]Binding) error {
	keys := make([]string, 0, len(bindings))
	for key, b := range bindings {
		if !validKey(key) {
			return fmt.Errorf("%w: key %q must be a single printable character", ErrInvalidBinding, key)
		}
		if key == QuitKey {
			return fmt.Errorf("%w: %q is reserved for quitting", ErrInvalidBinding, QuitKey)
		}
		if b.Handler == nil {
			return fmt.Errorf("%w: key %q has no handler", ErrInvalidBinding, key)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b := bindings[key]
		b.Key = key
		e, exists := r.bindings[key]
		if !exists {
			r.order = append(r.order, key)
			e = &entry{}
			r.bindings[key] = e
		}
		e.binding = b
		e.binding.Params = b.Params.Clone()
		e.defaults = b.Params.Clone()
	}
	return nil
}

// Resolve returns the most recently registered binding for key.
func (r *Registry) Resolve(key string) (Binding, bool) {
	e, ok := r.bindings[key]
	if !ok {
		return Binding{}, false
	}
	return e.binding, true
}

// Keys lists all bound keys in first-registration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Parameters returns the current parameter record for key.
func (r *Registry) Parameters(key string) (Params, bool) {
	e, ok := r.bindings[key]
	if !ok {
		return nil, false
	}
	return e.binding.Params, true
}

// SetParameters replaces settings in the parameter record for key.
// Settings not named in p keep their current value.
func (r *Registry) SetParameters(key string, p Params) error {
	e, ok := r.bindings[key]
	if !ok {
		return fmt.Errorf("registry: no binding for key %q", key)
	}
	if e.binding.Params == nil {
		e.binding.Params = Params{}
	}
	for name, value := range p {
		e.binding.Params[name] = value
	}
	return nil
}

// UnlearnAll resets every binding's parameter record to its registered
// default. Keys, order and handlers are untouched.
func (r *Registry) UnlearnAll() {
	for _, e := range r.bindings {
		e.binding.Params = e.defaults.Clone()
	}
}

func validKey(key string) bool {
	if utf8.RuneCountInString(key) != 1 {
		return false
	}
	c, _ := utf8.DecodeRuneInString(key)
	return unicode.IsPrint(c) && !unicode.IsSpace(c)
}
