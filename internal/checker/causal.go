package checker

import (
	"fmt"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

type vehicleState int

const (
	stateUnseen vehicleState = iota
	stateArrived
	stateBoarded
)

// CausalOrder tracks every vehicle through arrived -> boarded -> left and
// reports each out-of-order step. It keeps scanning after a violation.
type CausalOrder struct{}

func (CausalOrder) Name() string { return NameCausalOrder }

func (CausalOrder) Check(events []models.Event, _ config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameCausalOrder)
	states := make(map[models.EntityKey]vehicleState)

	for _, e := range events {
		if !e.Type.IsVehicle() {
			continue
		}
		k := e.Key()
		state := states[k]

		switch e.Action {
		case models.ActionArrivedTo:
			if state != stateUnseen {
				res.Fail(fmt.Sprintf("vehicle %s arrived again: %q (line %d)", k, e.String(), e.Line))
				continue
			}
			states[k] = stateArrived
		case models.ActionBoarding:
			switch state {
			case stateUnseen:
				res.Fail(fmt.Sprintf("vehicle %s tried to board before arriving: %q (line %d)", k, e.String(), e.Line))
			case stateBoarded:
				res.Fail(fmt.Sprintf("vehicle %s boarded again: %q (line %d)", k, e.String(), e.Line))
			default:
				states[k] = stateBoarded
			}
		case models.ActionLeavingIn:
			if state != stateBoarded {
				res.Fail(fmt.Sprintf("vehicle %s tried to leave before boarding: %q (line %d)", k, e.String(), e.Line))
			}
			if state == stateUnseen {
				res.Fail(fmt.Sprintf("vehicle %s tried to leave before arriving: %q (line %d)", k, e.String(), e.Line))
			}
		}
	}
	return res
}
