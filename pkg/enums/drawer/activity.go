package drawer

import (
	"strings"
)

// Activity is a cash drawer movement type.
type Activity struct {
	Name string
}

func (a Activity) Code() string {
	return a.Name
}

func (a Activity) Label() string {
	parts := strings.Split(strings.ToLower(a.Name), "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Manual reports whether staff may record this movement by hand.
func (a Activity) Manual() bool {
	return a == Activities.PaidIn || a == Activities.PaidOut
}

type Enum struct {
	ShiftStart Activity
	Sale       Activity
	Refund     Activity
	PaidIn     Activity
	PaidOut    Activity
	ShiftEnd   Activity
	ManualOpen Activity
}

var Activities = Enum{
	ShiftStart: Activity{Name: "SHIFT_START"},
	Sale:       Activity{Name: "SALE"},
	Refund:     Activity{Name: "REFUND"},
	PaidIn:     Activity{Name: "PAID_IN"},
	PaidOut:    Activity{Name: "PAID_OUT"},
	ShiftEnd:   Activity{Name: "SHIFT_END"},
	ManualOpen: Activity{Name: "MANUAL_OPEN"},
}

var All = []Activity{
	Activities.ShiftStart,
	Activities.Sale,
	Activities.Refund,
	Activities.PaidIn,
	Activities.PaidOut,
	Activities.ShiftEnd,
	Activities.ManualOpen,
}

// ByName returns the activity for a given name, or nil if not found
func ByName(name string) *Activity {
	for _, a := range All {
		if a.Name == name {
			return &a
		}
	}
	return nil
}
