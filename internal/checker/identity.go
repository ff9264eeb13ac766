package checker

import (
	"fmt"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// IdentityCoverage requires the observed truck and car ids to be exactly
// {1..Trucks} and {1..Cars}, and the ferry to always carry id 0.
type IdentityCoverage struct{}

func (IdentityCoverage) Name() string { return NameIdentityCoverage }

func (IdentityCoverage) Check(events []models.Event, cfg config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameIdentityCoverage)
	checkIDs(&res, events, models.EntityTruck, cfg.Trucks)
	checkIDs(&res, events, models.EntityCar, cfg.Cars)
	for _, e := range events {
		if e.Type == models.EntityProcess && e.ID != models.ProcessID {
			res.Fail(fmt.Sprintf("process id %d, expected %d: %q (line %d)", e.ID, models.ProcessID, e.String(), e.Line))
		}
	}
	return res
}

func checkIDs(res *models.CheckResult, events []models.Event, typ models.EntityType, expected int) {
	seen := make(map[int]struct{})
	for _, e := range events {
		if e.Type != typ {
			continue
		}
		seen[e.ID] = struct{}{}
		if e.ID < 1 || e.ID > expected {
			res.Fail(fmt.Sprintf("%s id %d outside 1..%d: %q (line %d)", typ, e.ID, expected, e.String(), e.Line))
		}
	}

	var missing []int
	for id := 1; id <= expected; id++ {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		res.Fail(fmt.Sprintf("%s ids mismatch: missing %v of 1..%d", typ, missing, expected))
	}
}
