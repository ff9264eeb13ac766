package checker

import (
	"fmt"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// Ordering fails on the first event whose sequence number is lower than
// its predecessor's.
type Ordering struct{}

func (Ordering) Name() string { return NameOrdering }

func (Ordering) Check(events []models.Event, _ config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameOrdering)
	for i := 1; i < len(events); i++ {
		if events[i].Seq < events[i-1].Seq {
			res.Fail(fmt.Sprintf("actions are not ordered: %q (line %d) follows %q (line %d)",
				events[i].String(), events[i].Line, events[i-1].String(), events[i-1].Line))
			break
		}
	}
	return res
}

// TypeValidity fails on the first event with an unknown entity label.
type TypeValidity struct{}

func (TypeValidity) Name() string { return NameTypeValidity }

func (TypeValidity) Check(events []models.Event, _ config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameTypeValidity)
	for _, e := range events {
		if e.Type == models.EntityUnknown {
			res.Fail(fmt.Sprintf("invalid type %q: %q (line %d)", e.Label, e.String(), e.Line))
			break
		}
	}
	return res
}

// ActionValidity fails on the first event whose action is outside its
// type's vocabulary. Unknown types are left to TypeValidity.
type ActionValidity struct{}

func (ActionValidity) Name() string { return NameActionValidity }

func (ActionValidity) Check(events []models.Event, _ config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameActionValidity)
	for _, e := range events {
		allowed, known := models.AllowedActions[e.Type]
		if !known {
			continue
		}
		if !allowed.Has(e.Action) {
			res.Fail(fmt.Sprintf("invalid action for type %q: %q in %q (line %d); expected one of %q",
				e.Label, e.Action, e.String(), e.Line, allowed.Sorted()))
			break
		}
	}
	return res
}

// PortValidity fails on the first event carrying a port outside the
// configured set.
type PortValidity struct{}

func (PortValidity) Name() string { return NamePortValidity }

func (PortValidity) Check(events []models.Event, cfg config.Verification) models.CheckResult {
	res := models.NewCheckResult(NamePortValidity)
	for _, e := range events {
		if e.HasPort() && !cfg.ValidPort(*e.Port) {
			res.Fail(fmt.Sprintf("invalid port number %d in %q (line %d); expected one of %v",
				*e.Port, e.String(), e.Line, cfg.Ports))
			break
		}
	}
	return res
}
