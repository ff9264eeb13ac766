package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a verification configuration is out of bounds.
var ErrInvalidConfig = errors.New("invalid verification config")

// Bounds accepted by the simulation's argument parser.
const (
	MaxTrucks   = 10000
	MaxCars     = 10000
	MinCapacity = 3
	MaxCapacity = 100
)

// Defaults of the reference ferry run.
const (
	DefaultTrucks     = 4
	DefaultCars       = 4
	DefaultTruckUnits = 3
	DefaultCarUnits   = 1
	DefaultCapacity   = 10
)

// Verification is the fixed per-run configuration shared by every checker.
type Verification struct {
	Trucks     int   `xml:"Trucks" yaml:"trucks" json:"trucks"`
	Cars       int   `xml:"Cars" yaml:"cars" json:"cars"`
	TruckUnits int   `xml:"TruckUnits" yaml:"truck_units" json:"truckUnits"`
	CarUnits   int   `xml:"CarUnits" yaml:"car_units" json:"carUnits"`
	Capacity   int   `xml:"Capacity" yaml:"capacity" json:"capacity"`
	Ports      []int `xml:"Ports>Port" yaml:"ports" json:"ports"`
	// Strict makes unparsable lines fail the run instead of being skipped.
	Strict bool `xml:"Strict" yaml:"strict" json:"strict"`
}

// DefaultVerification returns the configuration of the reference run.
func DefaultVerification() Verification {
	return Verification{
		Trucks:     DefaultTrucks,
		Cars:       DefaultCars,
		TruckUnits: DefaultTruckUnits,
		CarUnits:   DefaultCarUnits,
		Capacity:   DefaultCapacity,
		Ports:      []int{0, 1},
	}
}

// Validate checks the configuration against the simulation bounds.
func (v Verification) Validate() error {
	switch {
	case v.Trucks < 0 || v.Trucks > MaxTrucks:
		return fmt.Errorf("%w: trucks %d not in [0, %d]", ErrInvalidConfig, v.Trucks, MaxTrucks)
	case v.Cars < 0 || v.Cars > MaxCars:
		return fmt.Errorf("%w: cars %d not in [0, %d]", ErrInvalidConfig, v.Cars, MaxCars)
	case v.Capacity < MinCapacity || v.Capacity > MaxCapacity:
		return fmt.Errorf("%w: capacity %d not in [%d, %d]", ErrInvalidConfig, v.Capacity, MinCapacity, MaxCapacity)
	case v.TruckUnits < 1:
		return fmt.Errorf("%w: truck units must be positive, got %d", ErrInvalidConfig, v.TruckUnits)
	case v.CarUnits < 1:
		return fmt.Errorf("%w: car units must be positive, got %d", ErrInvalidConfig, v.CarUnits)
	case len(v.Ports) == 0:
		return fmt.Errorf("%w: at least one port is required", ErrInvalidConfig)
	}
	return nil
}

// ValidPort reports whether p is one of the configured ports.
func (v Verification) ValidPort(p int) bool {
	for _, port := range v.Ports {
		if port == p {
			return true
		}
	}
	return false
}

// Units returns the capacity units taken by a truck or a car.
func (v Verification) Units(truck bool) int {
	if truck {
		return v.TruckUnits
	}
	return v.CarUnits
}
