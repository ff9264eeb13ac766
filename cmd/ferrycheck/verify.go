package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/verify"
)

type verifyOptions struct {
	profile   string
	trucks    int
	cars      int
	truckSize int
	carSize   int
	capacity  int
	ports     []int
	strict    bool
	only      []string
	format    string
}

func newVerifyCmd(root *rootOptions) *cobra.Command {
	opts := &verifyOptions{}
	defaults := config.DefaultVerification()

	cmd := &cobra.Command{
		Use:   "verify [log-file|-]",
		Short: "Verify one event log",
		Long: `Parse an event log and run every checker against it.

Parameters come from the defaults, then from --profile, then from explicit
flags. The exit status is 1 when any check fails.

Examples:
  ferrycheck verify proj2.out
  ferrycheck verify --trucks 6 --cars 2 --capacity 12 proj2.out
  ferrycheck verify --only capacity,port-switch --format json proj2.out
  ./proj2 4 4 10 ... && cat proj2.out | ferrycheck verify -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runVerify(cmd, root, opts, path)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.profile, "profile", "", "YAML verification profile")
	f.IntVar(&opts.trucks, "trucks", defaults.Trucks, "Number of trucks in the run")
	f.IntVar(&opts.cars, "cars", defaults.Cars, "Number of cars in the run")
	f.IntVar(&opts.truckSize, "truck-size", defaults.TruckUnits, "Capacity units taken by a truck")
	f.IntVar(&opts.carSize, "car-size", defaults.CarUnits, "Capacity units taken by a car")
	f.IntVar(&opts.capacity, "capacity", defaults.Capacity, "Ferry capacity in units")
	f.IntSliceVar(&opts.ports, "ports", defaults.Ports, "Valid port numbers")
	f.BoolVar(&opts.strict, "strict", defaults.Strict, "Fail the run on unparsable lines")
	f.StringSliceVar(&opts.only, "only", nil, "Run only the named checkers (see 'ferrycheck checks')")
	f.StringVarP(&opts.format, "format", "f", string(verify.FormatText), "Report format: text, json, msgpack or xlsx")

	return cmd
}

// resolveConfig layers explicit flags over the profile over the defaults.
func (o *verifyOptions) resolveConfig(cmd *cobra.Command) (config.Verification, error) {
	cfg := config.DefaultVerification()
	if o.profile != "" {
		p, err := config.LoadProfile(o.profile)
		if err != nil {
			return cfg, err
		}
		cfg = p
	}

	flags := cmd.Flags()
	if flags.Changed("trucks") {
		cfg.Trucks = o.trucks
	}
	if flags.Changed("cars") {
		cfg.Cars = o.cars
	}
	if flags.Changed("truck-size") {
		cfg.TruckUnits = o.truckSize
	}
	if flags.Changed("car-size") {
		cfg.CarUnits = o.carSize
	}
	if flags.Changed("capacity") {
		cfg.Capacity = o.capacity
	}
	if flags.Changed("ports") {
		cfg.Ports = o.ports
	}
	if flags.Changed("strict") {
		cfg.Strict = o.strict
	}
	return cfg, cfg.Validate()
}

func runVerify(cmd *cobra.Command, root *rootOptions, opts *verifyOptions, path string) error {
	format, err := verify.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cfg, err := opts.resolveConfig(cmd)
	if err != nil {
		return err
	}
	registry, err := checker.NewRegistry().Select(opts.only)
	if err != nil {
		return err
	}
	logger, err := root.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	runner, err := verify.NewRunner(cfg, verify.WithRegistry(registry), verify.WithLogger(logger))
	if err != nil {
		return err
	}

	var report *models.Report
	if path == "-" {
		report, err = runner.Run(cmd.Context(), "stdin", cmd.InOrStdin())
	} else {
		if _, statErr := os.Stat(path); statErr != nil {
			return fmt.Errorf("cannot read log: %w", statErr)
		}
		report, err = runner.RunFile(cmd.Context(), path)
	}
	if err != nil {
		return err
	}

	if err := verify.Encode(cmd.OutOrStdout(), report, format); err != nil {
		return err
	}
	if !report.Passed {
		return errVerificationFailed
	}
	return nil
}

func newChecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "List the checkers in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range checker.NewRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
