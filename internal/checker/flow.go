package checker

import (
	"fmt"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// ProcessFlow requires every expected vehicle to show its whole lifecycle
// and the ferry to show every required action, finish included.
type ProcessFlow struct{}

func (ProcessFlow) Name() string { return NameProcessFlow }

func (ProcessFlow) Check(events []models.Event, cfg config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameProcessFlow)

	observed := make(map[models.EntityKey]models.ActionSet)
	for _, e := range events {
		k := e.Key()
		if observed[k] == nil {
			observed[k] = make(models.ActionSet)
		}
		observed[k][e.Action] = struct{}{}
	}

	expect := func(k models.EntityKey, required []models.Action) {
		got := observed[k]
		if missing := got.Missing(required); len(missing) > 0 {
			res.Fail(fmt.Sprintf("%s is missing steps %q; got %q, expected %q",
				k, missing, got.Sorted(), required))
		}
	}

	for id := 1; id <= cfg.Trucks; id++ {
		expect(models.EntityKey{Type: models.EntityTruck, ID: id}, models.VehicleActions)
	}
	for id := 1; id <= cfg.Cars; id++ {
		expect(models.EntityKey{Type: models.EntityCar, ID: id}, models.VehicleActions)
	}
	expect(models.EntityKey{Type: models.EntityProcess, ID: models.ProcessID}, models.ProcessActions)

	return res
}
