package api

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ferry-trace/verifier/internal/config"
)

// verificationParams overrides the server's default verification
// parameters. Nil fields keep the default.
type verificationParams struct {
	Trucks     *int     `json:"trucks,omitempty"`
	Cars       *int     `json:"cars,omitempty"`
	TruckUnits *int     `json:"truckUnits,omitempty"`
	CarUnits   *int     `json:"carUnits,omitempty"`
	Capacity   *int     `json:"capacity,omitempty"`
	Ports      []int    `json:"ports,omitempty"`
	Strict     *bool    `json:"strict,omitempty"`
	Only       []string `json:"only,omitempty"`
}

func (p verificationParams) apply(base config.Verification) config.Verification {
	cfg := base
	cfg.Ports = append([]int(nil), base.Ports...)
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&cfg.Trucks, p.Trucks)
	setInt(&cfg.Cars, p.Cars)
	setInt(&cfg.TruckUnits, p.TruckUnits)
	setInt(&cfg.CarUnits, p.CarUnits)
	setInt(&cfg.Capacity, p.Capacity)
	if len(p.Ports) > 0 {
		cfg.Ports = append([]int(nil), p.Ports...)
	}
	if p.Strict != nil {
		cfg.Strict = *p.Strict
	}
	return cfg
}

// bindQueryVerification reads verification overrides from the query string:
// trucks, cars, truckUnits, carUnits, capacity, port (repeatable), strict
// and only (repeatable or comma separated).
func bindQueryVerification(c echo.Context, base config.Verification) (config.Verification, []string, error) {
	cfg := base
	var (
		ports []int
		only  []string
	)
	err := echo.QueryParamsBinder(c).
		Int("trucks", &cfg.Trucks).
		Int("cars", &cfg.Cars).
		Int("truckUnits", &cfg.TruckUnits).
		Int("carUnits", &cfg.CarUnits).
		Int("capacity", &cfg.Capacity).
		Ints("port", &ports).
		Bool("strict", &cfg.Strict).
		Strings("only", &only).
		BindError()
	if err != nil {
		return cfg, nil, NewBadRequestError("invalid query parameters", err)
	}
	if len(ports) > 0 {
		cfg.Ports = ports
	} else {
		cfg.Ports = append([]int(nil), base.Ports...)
	}
	return cfg, splitNames(only), nil
}

// splitNames flattens comma separated checker names.
func splitNames(values []string) []string {
	var names []string
	for _, v := range values {
		for _, n := range strings.Split(v, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}
