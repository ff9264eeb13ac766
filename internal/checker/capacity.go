package checker

import (
	"fmt"
	"strings"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// CapacityBound sums the units boarded on every trip and fails when a trip
// exceeds the ferry capacity or a vehicle boards twice in one trip. A
// duplicate boarding is not counted towards the load.
type CapacityBound struct{}

func (CapacityBound) Name() string { return NameCapacity }

func (CapacityBound) Check(events []models.Event, cfg config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameCapacity)
	for _, t := range segmentTrips(events) {
		boarded := make(map[models.EntityKey]struct{})
		var lines []string
		load := 0
		for _, e := range t.events {
			if e.Action != models.ActionBoarding {
				continue
			}
			lines = append(lines, e.String())
			if _, dup := boarded[e.Key()]; dup {
				res.Fail(fmt.Sprintf("duplicate boarding detected: %q (line %d)", e.String(), e.Line))
				continue
			}
			boarded[e.Key()] = struct{}{}
			load += cfg.Units(e.Type == models.EntityTruck)
		}
		if load > cfg.Capacity {
			res.Fail(fmt.Sprintf("ferry overloaded: %d > %d on trip %q .. %q; boarded: %s",
				load, cfg.Capacity, t.arrival.String(), t.departure.String(), strings.Join(lines, ", ")))
		}
	}
	return res
}
