package kitchenstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

// Active reports whether a ticket in this status still belongs on the kitchen screen.
func (s Status) Active() bool {
	return s == Statuses.Cooking || s == Statuses.Ready
}

type Enum struct {
	Cooking   Status
	Ready     Status
	Completed Status
}

var Statuses = Enum{
	Cooking:   Status{Name: "cooking"},
	Ready:     Status{Name: "ready"},
	Completed: Status{Name: "completed"},
}

var All = []Status{
	Statuses.Cooking,
	Statuses.Ready,
	Statuses.Completed,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
