// Package checker implements the invariants a correct ferry simulation
// never violates. Every checker is a pure function of the parsed events
// and the run configuration; checkers share no state and may run in any
// order or concurrently.
package checker

import (
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// Checker names as they appear in reports.
const (
	NameIdentityCoverage = "identity-coverage"
	NameTypeValidity     = "type-validity"
	NameActionValidity   = "action-validity"
	NameOrdering         = "ordering"
	NamePortValidity     = "port-validity"
	NameProcessFlow      = "process-flow"
	NameBoardingWindow   = "boarding-window"
	NameCapacity         = "capacity"
	NamePortSwitch       = "port-switch"
	NameCausalOrder      = "causal-order"
)

// Checker verifies one property of a trace.
type Checker interface {
	// Name returns the unique name of the checker.
	Name() string
	// Check must not modify events.
	Check(events []models.Event, cfg config.Verification) models.CheckResult
}

// trip is one boarding window: a ferry arrival, the vehicle boarding and
// leaving-in events recorded while docked, and the departure.
type trip struct {
	arrival   models.Event
	departure models.Event
	events    []models.Event
}

// segmentTrips splits the log into closed trips. Vehicle events seen while
// the ferry is not docked, and a final window the ferry never leaves, are
// not part of any trip.
func segmentTrips(events []models.Event) []trip {
	var (
		trips   []trip
		current *trip
	)
	for _, e := range events {
		switch {
		case e.Type == models.EntityProcess && e.Action == models.ActionArrivedTo:
			current = &trip{arrival: e}
		case e.Type == models.EntityProcess && e.Action == models.ActionLeaving:
			if current != nil {
				current.departure = e
				trips = append(trips, *current)
				current = nil
			}
		case current != nil && e.Type.IsVehicle() &&
			(e.Action == models.ActionBoarding || e.Action == models.ActionLeavingIn):
			current.events = append(current.events, e)
		}
	}
	return trips
}
