package checker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/parser"
	"github.com/stretchr/testify/require"
)

// referenceTrace is a correct run with 4 trucks, 4 cars and capacity 10.
var referenceTrace = []string{
	"1: P: started",
	"2: N 1: started",
	"3: N 2: started",
	"4: N 3: started",
	"5: N 4: started",
	"6: O 1: started",
	"7: O 2: started",
	"8: O 3: started",
	"9: O 4: started",
	"10: N 1: arrived to 0",
	"11: N 2: arrived to 0",
	"12: N 3: arrived to 0",
	"13: O 1: arrived to 0",
	"14: N 4: arrived to 1",
	"15: O 2: arrived to 1",
	"16: O 3: arrived to 1",
	"17: O 4: arrived to 1",
	"18: P: arrived to 0",
	"19: N 1: boarding",
	"20: N 2: boarding",
	"21: N 3: boarding",
	"22: O 1: boarding",
	"23: P: leaving 0",
	"24: P: arrived to 1",
	"25: N 1: leaving in 1",
	"26: N 2: leaving in 1",
	"27: N 3: leaving in 1",
	"28: O 1: leaving in 1",
	"29: N 4: boarding",
	"30: O 2: boarding",
	"31: O 3: boarding",
	"32: O 4: boarding",
	"33: P: leaving 1",
	"34: P: arrived to 0",
	"35: N 4: leaving in 0",
	"36: O 2: leaving in 0",
	"37: O 3: leaving in 0",
	"38: O 4: leaving in 0",
	"39: P: finish",
}

func parseLines(t *testing.T, lines ...string) []models.Event {
	t.Helper()
	res, err := parser.NewTraceParser().Parse(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Empty(t, res.Rejected, "test trace must be well formed")
	return res.Events
}

// withLine returns a copy of the reference trace with line i replaced.
func withLine(i int, line string) []string {
	out := append([]string(nil), referenceTrace...)
	out[i] = line
	return out
}

// without returns a copy of the reference trace minus lines containing any of subs.
func without(subs ...string) []string {
	var out []string
next:
	for _, l := range referenceTrace {
		for _, s := range subs {
			if strings.Contains(l, s) {
				continue next
			}
		}
		out = append(out, l)
	}
	return out
}

// renumber rewrites sequence numbers to 1..n.
func renumber(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		_, rest, _ := strings.Cut(l, ": ")
		out[i] = fmt.Sprintf("%d: %s", i+1, rest)
	}
	return out
}

func runAll(events []models.Event, cfg config.Verification) map[string]models.CheckResult {
	out := make(map[string]models.CheckResult)
	for _, c := range NewRegistry().Checkers() {
		out[c.Name()] = c.Check(events, cfg)
	}
	return out
}

func failing(results map[string]models.CheckResult) []string {
	var names []string
	for _, name := range NewRegistry().Names() {
		if !results[name].Passed {
			names = append(names, name)
		}
	}
	return names
}
