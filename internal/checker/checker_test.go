package checker

import (
	"strings"
	"testing"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceTracePassesEverything(t *testing.T) {
	results := runAll(parseLines(t, referenceTrace...), config.DefaultVerification())
	assert.Empty(t, failing(results))
	for name, res := range results {
		assert.Empty(t, res.Diagnostics, name)
	}
}

func TestOrderingInversionFailsOrderingOnly(t *testing.T) {
	lines := withLine(3, "2: N 3: started")
	results := runAll(parseLines(t, lines...), config.DefaultVerification())

	assert.Equal(t, []string{NameOrdering}, failing(results))
	diag := results[NameOrdering].Diagnostics
	require.Len(t, diag, 1)
	assert.Contains(t, diag[0], `"2: N 3: started"`)
	assert.Contains(t, diag[0], `"3: N 2: started"`)
}

func TestOrderingAllowsEqualSequenceNumbers(t *testing.T) {
	events := parseLines(t, "1: P: started", "1: N 1: started", "2: O 1: started")
	assert.True(t, Ordering{}.Check(events, config.DefaultVerification()).Passed)
}

func TestTypeValidity(t *testing.T) {
	events := parseLines(t, "1: P: started", "2: X 1: started", "3: Y 1: started")
	res := TypeValidity{}.Check(events, config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1, "reports the first offender only")
	assert.Contains(t, res.Diagnostics[0], `invalid type "X"`)
}

func TestActionValidity(t *testing.T) {
	cfg := config.DefaultVerification()

	res := ActionValidity{}.Check(parseLines(t, "1: N 1: finish"), cfg)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Diagnostics[0], `"finish"`)

	res = ActionValidity{}.Check(parseLines(t, "1: P: boarding"), cfg)
	assert.False(t, res.Passed)

	res = ActionValidity{}.Check(parseLines(t, "1: P: leaving in 1"), cfg)
	assert.False(t, res.Passed)

	// unknown types belong to type-validity
	res = ActionValidity{}.Check(parseLines(t, "1: X 1: dancing"), cfg)
	assert.True(t, res.Passed)
}

func TestPortValidity(t *testing.T) {
	cfg := config.DefaultVerification()
	lines := withLine(9, "10: N 1: arrived to 2")
	results := runAll(parseLines(t, lines...), cfg)

	res := results[NamePortValidity]
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "invalid port number 2")

	// events without a port are fine
	assert.True(t, PortValidity{}.Check(parseLines(t, "1: P: started"), cfg).Passed)
}

func TestIdentityCoverage(t *testing.T) {
	cfg := config.DefaultVerification()

	res := IdentityCoverage{}.Check(parseLines(t, referenceTrace...), cfg)
	assert.True(t, res.Passed)

	res = IdentityCoverage{}.Check(parseLines(t, renumber(without("N 3:"))...), cfg)
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "truck ids mismatch: missing [3]")

	extra := append(append([]string(nil), referenceTrace...), "40: O 5: started")
	res = IdentityCoverage{}.Check(parseLines(t, extra...), cfg)
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "car id 5 outside 1..4")
	assert.Contains(t, res.Diagnostics[0], `"40: O 5: started"`)
}

func TestIdentityCoverageNamesZeroID(t *testing.T) {
	extra := append(append([]string(nil), referenceTrace...), "40: N 0: boarding")
	res := IdentityCoverage{}.Check(parseLines(t, extra...), config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "truck id 0 outside 1..4")
	assert.Contains(t, res.Diagnostics[0], `"40: N 0: boarding"`)
}

func TestIdentityCoverageFerryID(t *testing.T) {
	extra := append(append([]string(nil), referenceTrace...), "40: P 2: leaving 1")
	res := IdentityCoverage{}.Check(parseLines(t, extra...), config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "process id 2, expected 0")
	assert.Contains(t, res.Diagnostics[0], `"40: P 2: leaving 1"`)
}

func TestIdentityCoverageZeroVehicles(t *testing.T) {
	cfg := config.DefaultVerification()
	cfg.Trucks, cfg.Cars = 0, 0
	res := IdentityCoverage{}.Check(parseLines(t, "1: P: started", "2: P: finish"), cfg)
	assert.True(t, res.Passed)
}

func TestProcessFlow(t *testing.T) {
	cfg := config.DefaultVerification()

	res := ProcessFlow{}.Check(parseLines(t, renumber(without("O 2: boarding"))...), cfg)
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "O 2 is missing steps")
	assert.Contains(t, res.Diagnostics[0], `"boarding"`)

	res = ProcessFlow{}.Check(parseLines(t, renumber(without("P: finish"))...), cfg)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Diagnostics[0], "P is missing steps")
}

func TestBoardingWindow(t *testing.T) {
	events := parseLines(t,
		"1: O 1: arrived to 1",
		"2: P: arrived to 0",
		"3: N 1: boarding",
		"4: O 1: leaving in 0",
		"5: P: leaving 0",
	)
	res := BoardingWindow{}.Check(events, config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], `"4: O 1: leaving in 0"`)

	// events outside a window and unclosed windows are ignored
	events = parseLines(t,
		"1: N 1: boarding",
		"2: O 1: leaving in 0",
		"3: P: arrived to 0",
		"4: N 2: boarding",
		"5: O 2: leaving in 0",
	)
	assert.True(t, BoardingWindow{}.Check(events, config.DefaultVerification()).Passed)
}

func TestCapacityBound(t *testing.T) {
	cfg := config.DefaultVerification()

	full := parseLines(t,
		"1: P: arrived to 0",
		"2: N 1: boarding",
		"3: N 2: boarding",
		"4: N 3: boarding",
		"5: O 1: boarding",
		"6: P: leaving 0",
	)
	assert.True(t, CapacityBound{}.Check(full, cfg).Passed)

	over := parseLines(t,
		"1: P: arrived to 0",
		"2: N 1: boarding",
		"3: N 2: boarding",
		"4: N 3: boarding",
		"5: N 4: boarding",
		"6: P: leaving 0",
	)
	res := CapacityBound{}.Check(over, cfg)
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "12 > 10")
}

func TestCapacityResetsPerTrip(t *testing.T) {
	events := parseLines(t,
		"1: P: arrived to 0",
		"2: N 1: boarding",
		"3: N 2: boarding",
		"4: N 3: boarding",
		"5: P: leaving 0",
		"6: P: arrived to 1",
		"7: N 4: boarding",
		"8: N 1: boarding",
		"9: N 2: boarding",
		"10: P: leaving 1",
	)
	assert.True(t, CapacityBound{}.Check(events, config.DefaultVerification()).Passed)
}

func TestCapacityDuplicateBoarding(t *testing.T) {
	events := parseLines(t,
		"1: P: arrived to 0",
		"2: N 1: boarding",
		"3: N 1: boarding",
		"4: N 1: boarding",
		"5: N 2: boarding",
		"6: N 3: boarding",
		"7: P: leaving 0",
	)
	res := CapacityBound{}.Check(events, config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 2, "both duplicates reported, load 9 stays within capacity")
	assert.Contains(t, res.Diagnostics[0], "duplicate boarding detected")
	assert.Contains(t, res.Diagnostics[1], `"4: N 1: boarding"`)
}

func TestCapacityUsesConfiguredUnits(t *testing.T) {
	cfg := config.DefaultVerification()
	cfg.CarUnits = 4
	events := parseLines(t,
		"1: P: arrived to 0",
		"2: O 1: boarding",
		"3: O 2: boarding",
		"4: O 3: boarding",
		"5: P: leaving 0",
	)
	res := CapacityBound{}.Check(events, cfg)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Diagnostics[0], "12 > 10")
}

func TestPortSwitch(t *testing.T) {
	cfg := config.DefaultVerification()

	same := parseLines(t,
		"1: O 1: arrived to 0",
		"2: O 1: boarding",
		"3: O 1: leaving in 0",
		"4: P: finish",
	)
	res := PortSwitch{}.Check(same, cfg)
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "O 1 left from the same port it arrived to: 0")

	crossed := parseLines(t,
		"1: O 1: arrived to 0",
		"2: O 1: boarding",
		"3: O 1: leaving in 1",
		"4: P: finish",
	)
	assert.True(t, PortSwitch{}.Check(crossed, cfg).Passed)

	stayed := parseLines(t, "1: N 2: arrived to 1", "2: P: finish")
	res = PortSwitch{}.Check(stayed, cfg)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"N 2 never left"}, res.Diagnostics)
}

func TestPortSwitchLeavesUnknownTypesToTypeValidity(t *testing.T) {
	events := parseLines(t, "1: X 1: arrived to 0", "2: P: finish")
	assert.True(t, PortSwitch{}.Check(events, config.DefaultVerification()).Passed)
	assert.False(t, TypeValidity{}.Check(events, config.DefaultVerification()).Passed)
}

func TestPortSwitchRequiresSingleFinish(t *testing.T) {
	cfg := config.DefaultVerification()

	res := PortSwitch{}.Check(parseLines(t, renumber(without("P: finish"))...), cfg)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"ferry did not finish its journey"}, res.Diagnostics)

	twice := append(append([]string(nil), referenceTrace...), "40: P: finish")
	res = PortSwitch{}.Check(parseLines(t, twice...), cfg)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Diagnostics[0], "finished 2 times")
}

func TestCausalOrderIsolatesOffender(t *testing.T) {
	events := parseLines(t,
		"1: O 1: arrived to 0",
		"2: O 2: boarding",
		"3: O 1: boarding",
		"4: O 1: leaving in 1",
	)
	res := CausalOrder{}.Check(events, config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0], "vehicle O 2 tried to board before arriving")
	for _, d := range res.Diagnostics {
		assert.NotContains(t, d, "O 1")
	}
}

func TestCausalOrderReportsEveryViolation(t *testing.T) {
	events := parseLines(t,
		"1: N 1: leaving in 1",
		"2: N 2: arrived to 0",
		"3: N 2: leaving in 1",
		"4: N 2: arrived to 0",
	)
	res := CausalOrder{}.Check(events, config.DefaultVerification())
	assert.False(t, res.Passed)
	require.Len(t, res.Diagnostics, 4)
	assert.Contains(t, res.Diagnostics[0], "N 1 tried to leave before boarding")
	assert.Contains(t, res.Diagnostics[1], "N 1 tried to leave before arriving")
	assert.Contains(t, res.Diagnostics[2], "N 2 tried to leave before boarding")
	assert.Contains(t, res.Diagnostics[3], "N 2 arrived again")
}

func TestCausalOrderIgnoresFerry(t *testing.T) {
	events := parseLines(t, "1: P: arrived to 0", "2: P: leaving 0", "3: P: arrived to 1")
	assert.True(t, CausalOrder{}.Check(events, config.DefaultVerification()).Passed)
}

func TestCheckersDoNotModifyEvents(t *testing.T) {
	events := parseLines(t, referenceTrace...)
	snapshot := make([]models.Event, len(events))
	copy(snapshot, events)

	runAll(events, config.DefaultVerification())
	assert.Equal(t, snapshot, events)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Len(t, r.Names(), 10)

	c, err := r.GetCheckerByName(" Capacity ")
	require.NoError(t, err)
	assert.Equal(t, NameCapacity, c.Name())

	_, err = r.GetCheckerByName("nope")
	assert.Error(t, err)

	sub, err := r.Select([]string{NameCausalOrder, NameOrdering})
	require.NoError(t, err)
	assert.Equal(t, []string{NameOrdering, NameCausalOrder}, sub.Names(), "selection keeps battery order")

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, r.Names(), all.Names())

	_, err = r.Select([]string{"ordering", "bogus"})
	assert.True(t, err != nil && strings.Contains(err.Error(), "bogus"))
}
