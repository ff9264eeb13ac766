package checker

import (
	"fmt"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
)

// BoardingWindow scans each docked window in order and fails on any
// "leaving in" recorded after a "boarding" in the same window: vehicles
// unload before the ferry loads.
type BoardingWindow struct{}

func (BoardingWindow) Name() string { return NameBoardingWindow }

func (BoardingWindow) Check(events []models.Event, _ config.Verification) models.CheckResult {
	res := models.NewCheckResult(NameBoardingWindow)
	for _, t := range segmentTrips(events) {
		boarded := false
		for _, e := range t.events {
			switch e.Action {
			case models.ActionBoarding:
				boarded = true
			case models.ActionLeavingIn:
				if boarded {
					res.Fail(fmt.Sprintf("invalid sequence: %q (line %d) after boarding started in the window opened by %q",
						e.String(), e.Line, t.arrival.String()))
				}
			}
		}
	}
	return res
}
