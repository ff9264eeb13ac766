package testutil

import (
	"strings"

	"github.com/ferry-trace/verifier/internal/config"
)

// SmallTrace is a correct run with one truck and one car.
const SmallTrace = `1: P: started
2: N 1: started
3: O 1: started
4: N 1: arrived to 0
5: O 1: arrived to 1
6: P: arrived to 0
7: N 1: boarding
8: P: leaving 0
9: P: arrived to 1
10: N 1: leaving in 1
11: O 1: boarding
12: P: leaving 1
13: P: arrived to 0
14: O 1: leaving in 0
15: P: finish
`

// SmallConfig matches SmallTrace.
func SmallConfig() config.Verification {
	cfg := config.DefaultVerification()
	cfg.Trucks, cfg.Cars = 1, 1
	return cfg
}

// UnfinishedTrace is SmallTrace without the ferry's finish line.
func UnfinishedTrace() string {
	return strings.Replace(SmallTrace, "15: P: finish\n", "", 1)
}
