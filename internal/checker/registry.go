package checker

import (
	"fmt"
	"strings"
)

// Registry holds the checker battery in execution order.
type Registry struct {
	checkers []Checker
}

// NewRegistry returns a registry with every built-in checker.
func NewRegistry() *Registry {
	return &Registry{
		checkers: []Checker{
			IdentityCoverage{},
			TypeValidity{},
			ActionValidity{},
			Ordering{},
			PortValidity{},
			ProcessFlow{},
			BoardingWindow{},
			CapacityBound{},
			PortSwitch{},
			CausalOrder{},
		},
	}
}

// Register adds a checker to the end of the battery.
func (r *Registry) Register(c Checker) {
	r.checkers = append(r.checkers, c)
}

// Checkers returns the battery in execution order.
func (r *Registry) Checkers() []Checker {
	out := make([]Checker, len(r.checkers))
	copy(out, r.checkers)
	return out
}

// Names lists the registered checker names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.checkers))
	for _, c := range r.checkers {
		names = append(names, c.Name())
	}
	return names
}

// GetCheckerByName returns a checker by its name.
func (r *Registry) GetCheckerByName(name string) (Checker, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range r.checkers {
		if strings.ToLower(c.Name()) == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("checker not found: %s", name)
}

// Select returns a registry restricted to the named checkers, kept in
// battery order. An empty list selects everything.
func (r *Registry) Select(names []string) (*Registry, error) {
	if len(names) == 0 {
		return &Registry{checkers: r.Checkers()}, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		c, err := r.GetCheckerByName(n)
		if err != nil {
			return nil, err
		}
		want[c.Name()] = struct{}{}
	}
	sub := &Registry{}
	for _, c := range r.checkers {
		if _, ok := want[c.Name()]; ok {
			sub.checkers = append(sub.checkers, c)
		}
	}
	return sub, nil
}
