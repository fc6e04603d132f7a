package provider

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// MaxSuggestDistance is the largest edit distance Suggest will accept.
const MaxSuggestDistance = 3

// Registry enumerates candidate providers in priority order and resolves them
// against the current environment.
type Registry interface {
	// List returns the descriptors in priority order. It performs no I/O.
	List() []Descriptor

	// Resolve looks the descriptor's binding up in the environment. The
	// result is never cached; bindings come and go as extensions load.
	Resolve(d Descriptor) (Wallet, bool)
}

// Compile-time interface check
var _ Registry = (*StaticRegistry)(nil)

// StaticRegistry is a Registry over a fixed descriptor list.
type StaticRegistry struct {
	env         Environment
	descriptors []Descriptor
}

// NewRegistry creates a registry over env. Descriptors are ordered by
// ascending priority; ties keep their given order.
func NewRegistry(env Environment, descriptors ...Descriptor) (*StaticRegistry, error) {
	if env == nil {
		return nil, gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{"reason": "nil environment"})
	}
	if len(descriptors) == 0 {
		return nil, gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{"reason": "no wallet providers configured"})
	}

	seen := make(map[string]struct{}, len(descriptors))
	for i, d := range descriptors {
		if strings.TrimSpace(d.Binding) == "" {
			return nil, gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{
				"reason": fmt.Sprintf("provider %d has an empty binding", i),
			})
		}
		if _, dup := seen[d.Binding]; dup {
			return nil, gateerr.WithDetails(gateerr.ErrConfigInvalid, map[string]string{
				"reason":  "duplicate binding",
				"binding": d.Binding,
			})
		}
		seen[d.Binding] = struct{}{}
	}

	sorted := slices.Clone(descriptors)
	slices.SortStableFunc(sorted, func(a, b Descriptor) int {
		return a.Priority - b.Priority
	})

	return &StaticRegistry{env: env, descriptors: sorted}, nil
}

// MustRegistry is NewRegistry for static configuration known to be valid.
func MustRegistry(env Environment, descriptors ...Descriptor) *StaticRegistry {
	r, err := NewRegistry(env, descriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// List returns a copy of the ordered descriptors.
func (r *StaticRegistry) List() []Descriptor {
	return slices.Clone(r.descriptors)
}

// Resolve looks up the descriptor's binding in the environment.
func (r *StaticRegistry) Resolve(d Descriptor) (Wallet, bool) {
	w, ok := r.env.Lookup(d.Binding)
	if !ok || w == nil {
		return nil, false
	}
	return w, true
}

// Lookup returns the descriptor registered for binding.
func (r *StaticRegistry) Lookup(binding string) (Descriptor, error) {
	for _, d := range r.descriptors {
		if d.Binding == binding {
			return d, nil
		}
	}

	details := map[string]string{"binding": binding}
	err := gateerr.WithDetails(gateerr.ErrUnknownProvider, details)
	if s := Suggest(binding, r.descriptors); s != "" {
		err = gateerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", s))
	}
	return Descriptor{}, err
}

// Names returns the display names of all providers in order.
func (r *StaticRegistry) Names() []string {
	return Names(r.descriptors)
}

// Names returns the display names of descriptors in order.
func Names(descriptors []Descriptor) []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.DisplayName()
	}
	return names
}

// Suggest returns the binding closest to input, or "" when nothing is within
// MaxSuggestDistance edits. Matching ignores case.
func Suggest(input string, descriptors []Descriptor) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	best := math.MaxInt
	var suggestion string
	for _, d := range descriptors {
		dist := levenshtein.ComputeDistance(input, strings.ToLower(d.Binding))
		if dist < best {
			best = dist
			suggestion = d.Binding
		}
	}

	if best <= MaxSuggestDistance {
		return suggestion
	}
	return ""
}
