package verify

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/parser"
)

var traceActions = []string{"started", "arrived to 0", "arrived to 1", "boarding", "leaving in 0", "leaving in 1", "leaving 0", "finish"}
var traceLabels = []string{"N 1", "N 2", "O 1", "O 2", "P"}

// genTrace generates short random logs over the real vocabulary.
func genTrace() gopter.Gen {
	line := gopter.CombineGens(
		gen.IntRange(0, 50),
		gen.IntRange(0, len(traceLabels)-1),
		gen.IntRange(0, len(traceActions)-1),
	).Map(func(vs []interface{}) string {
		return fmt.Sprintf("%d: %s: %s", vs[0].(int), traceLabels[vs[1].(int)], traceActions[vs[2].(int)])
	})
	return gen.SliceOf(line)
}

func parseTrace(lines []string) []models.Event {
	res, err := parser.NewTraceParser().Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return nil
	}
	return res.Events
}

// TestEvaluateIsIdempotent checks that re-running the battery on the same
// events gives identical verdicts and diagnostics.
func TestEvaluateIsIdempotent(t *testing.T) {
	r := newTestRunner(t, smallConfig())

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Evaluate(events) == Evaluate(events)", prop.ForAll(
		func(lines []string) bool {
			events := parseTrace(lines)
			first, err1 := r.Evaluate(context.Background(), events)
			second, err2 := r.Evaluate(context.Background(), events)
			if err1 != nil || err2 != nil {
				return false
			}
			return fmt.Sprint(first) == fmt.Sprint(second)
		},
		genTrace(),
	))

	properties.TestingRun(t)
}

// TestOrderingProperty checks that ordering passes exactly when sequence
// numbers never decrease.
func TestOrderingProperty(t *testing.T) {
	cfg := smallConfig()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ordering passes iff seq is non-decreasing", prop.ForAll(
		func(lines []string) bool {
			events := parseTrace(lines)
			sorted := true
			for i := 1; i < len(events); i++ {
				if events[i].Seq < events[i-1].Seq {
					sorted = false
					break
				}
			}
			return checker.Ordering{}.Check(events, cfg).Passed == sorted
		},
		genTrace(),
	))

	properties.TestingRun(t)
}

func TestAllRejectedLogStillReports(t *testing.T) {
	r := newTestRunner(t, smallConfig())
	report, err := r.Run(context.Background(), "noise", strings.NewReader("a\nb\nc\n"))
	require.NoError(t, err)
	require.Len(t, report.RejectedLines, 3)
	require.Zero(t, report.EventCount)
	require.False(t, report.Passed)
}
