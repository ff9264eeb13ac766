package checker

import (
	"fmt"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// PortSwitch requires exactly one ferry finish and, for every vehicle that
// arrived, a last "leaving in" on the other side from its first arrival.
type PortSwitch struct{}

func (PortSwitch) Name() string { return NamePortSwitch }

func (PortSwitch) Check(events []models.Event, _ config.Verification) models.CheckResult {
	res := models.NewCheckResult(NamePortSwitch)

	type crossing struct {
		arrivedAt int
		left      bool
		leftFrom  int
	}
	var order []models.EntityKey
	vehicles := make(map[models.EntityKey]*crossing)
	finishes := 0

	for _, e := range events {
		if e.Type == models.EntityProcess && e.Action == models.ActionFinish {
			finishes++
			continue
		}
		// Unknown labels are type-validity's failure; tracking them here
		// would report the same bad line twice.
		if !e.Type.IsVehicle() {
			continue
		}
		k := e.Key()
		switch e.Action {
		case models.ActionArrivedTo:
			if _, ok := vehicles[k]; !ok {
				vehicles[k] = &crossing{arrivedAt: e.PortValue()}
				order = append(order, k)
			}
		case models.ActionLeavingIn:
			// Departures of vehicles that never arrived are causal-order's concern.
			if c, ok := vehicles[k]; ok {
				c.left = true
				c.leftFrom = e.PortValue()
			}
		}
	}

	switch {
	case finishes == 0:
		res.Fail("ferry did not finish its journey")
	case finishes > 1:
		res.Fail(fmt.Sprintf("ferry finished %d times, expected exactly once", finishes))
	}

	for _, k := range order {
		c := vehicles[k]
		switch {
		case !c.left:
			res.Fail(fmt.Sprintf("%s never left", k))
		case c.leftFrom == c.arrivedAt:
			res.Fail(fmt.Sprintf("%s left from the same port it arrived to: %d", k, c.arrivedAt))
		}
	}
	return res
}
