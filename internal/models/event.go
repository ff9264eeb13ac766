// Package models contains domain types for the ferry trace verifier.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EntityType identifies who emitted an event.
type EntityType int

const (
	EntityUnknown EntityType = iota
	EntityTruck
	EntityCar
	EntityProcess
)

// Single-letter labels used on the wire.
const (
	LabelTruck   = "N"
	LabelCar     = "O"
	LabelProcess = "P"
)

// EntityTypeFromLabel maps a wire label to its EntityType.
func EntityTypeFromLabel(label string) EntityType {
	switch label {
	case LabelTruck:
		return EntityTruck
	case LabelCar:
		return EntityCar
	case LabelProcess:
		return EntityProcess
	default:
		return EntityUnknown
	}
}

// Label returns the wire label of the type, or "" for unknown types.
func (t EntityType) Label() string {
	switch t {
	case EntityTruck:
		return LabelTruck
	case EntityCar:
		return LabelCar
	case EntityProcess:
		return LabelProcess
	default:
		return ""
	}
}

func (t EntityType) String() string {
	switch t {
	case EntityTruck:
		return "truck"
	case EntityCar:
		return "car"
	case EntityProcess:
		return "process"
	default:
		return "unknown"
	}
}

// IsVehicle reports whether the type is a Truck or a Car.
func (t EntityType) IsVehicle() bool {
	return t == EntityTruck || t == EntityCar
}

// MarshalText encodes the type as its lowercase name.
func (t EntityType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *EntityType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "truck":
		*t = EntityTruck
	case "car":
		*t = EntityCar
	case "process":
		*t = EntityProcess
	case "unknown":
		*t = EntityUnknown
	default:
		return fmt.Errorf("unknown entity type %q", text)
	}
	return nil
}

// Action is a lifecycle action label.
type Action string

const (
	ActionStarted   Action = "started"
	ActionArrivedTo Action = "arrived to"
	ActionBoarding  Action = "boarding"
	ActionLeavingIn Action = "leaving in"
	ActionLeaving   Action = "leaving"
	ActionFinish    Action = "finish"
)

// ActionSet is an unordered set of actions.
type ActionSet map[Action]struct{}

// NewActionSet builds a set from the given actions.
func NewActionSet(actions ...Action) ActionSet {
	s := make(ActionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

// Has reports whether a is in the set.
func (s ActionSet) Has(a Action) bool {
	_, ok := s[a]
	return ok
}

// Missing returns the members of required absent from s, in required's order.
func (s ActionSet) Missing(required []Action) []Action {
	var out []Action
	for _, a := range required {
		if !s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// Sorted returns the set members in lexical order.
func (s ActionSet) Sorted() []Action {
	out := make([]Action, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// VehicleActions lists the lifecycle every Truck and Car goes through, in order.
var VehicleActions = []Action{ActionStarted, ActionArrivedTo, ActionBoarding, ActionLeavingIn}

// ProcessActions lists the actions the ferry must emit.
var ProcessActions = []Action{ActionStarted, ActionArrivedTo, ActionLeaving, ActionFinish}

// AllowedActions is the per-type action vocabulary.
var AllowedActions = map[EntityType]ActionSet{
	EntityTruck:   NewActionSet(VehicleActions...),
	EntityCar:     NewActionSet(VehicleActions...),
	EntityProcess: NewActionSet(ProcessActions...),
}

// ProcessID is the id carried by every ferry event.
const ProcessID = 0

// Event is one parsed log line.
type Event struct {
	Seq    uint64     `json:"seq" msgpack:"seq"`
	Type   EntityType `json:"type" msgpack:"type"`
	Label  string     `json:"label" msgpack:"label"`
	ID     int        `json:"id" msgpack:"id"`
	Action Action     `json:"action" msgpack:"action"`
	Port   *int       `json:"port,omitempty" msgpack:"port,omitempty"`
	Line   int        `json:"line,omitempty" msgpack:"line,omitempty"`
}

// EntityKey identifies one entity across the log.
type EntityKey struct {
	Type EntityType
	ID   int
}

func (k EntityKey) String() string {
	if k.Type == EntityProcess {
		return LabelProcess
	}
	return fmt.Sprintf("%s %d", k.Type.Label(), k.ID)
}

// Key returns the entity the event belongs to.
func (e Event) Key() EntityKey {
	return EntityKey{Type: e.Type, ID: e.ID}
}

// HasPort reports whether the line carried a port.
func (e Event) HasPort() bool {
	return e.Port != nil
}

// PortValue returns the port, or -1 when absent.
func (e Event) PortValue() int {
	if e.Port == nil {
		return -1
	}
	return *e.Port
}

// String renders the event in its wire form. Only the ferry's id 0 is
// left out, so a vehicle id of 0 stays visible in diagnostics.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(e.Seq, 10))
	b.WriteString(": ")
	b.WriteString(e.Label)
	if e.Type != EntityProcess || e.ID != ProcessID {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(e.ID))
	}
	b.WriteString(": ")
	b.WriteString(string(e.Action))
	if e.Port != nil {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(*e.Port))
	}
	return b.String()
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
