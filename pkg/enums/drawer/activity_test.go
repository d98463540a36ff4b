package drawer

import (
	"testing"
)

func TestDrawerActivity(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantLabel  string
		wantManual bool
		wantNil    bool
	}{
		{name: "paidIn", code: "PAID_IN", wantLabel: "Paid In", wantManual: true},
		{name: "paidOut", code: "PAID_OUT", wantLabel: "Paid Out", wantManual: true},
		{name: "sale", code: "SALE", wantLabel: "Sale"},
		{name: "manualOpen", code: "MANUAL_OPEN", wantLabel: "Manual Open"},
		{name: "unknown", code: "BRIBE", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ByName(tt.code)
			if tt.wantNil {
				if a != nil {
					t.Fatalf("ByName(%q) = %v, want nil", tt.code, a)
				}
				return
			}
			if a == nil {
				t.Fatalf("ByName(%q) = nil", tt.code)
			}
			if a.Label() != tt.wantLabel {
				t.Errorf("Label() = %q, want %q", a.Label(), tt.wantLabel)
			}
			if a.Manual() != tt.wantManual {
				t.Errorf("Manual() = %v, want %v", a.Manual(), tt.wantManual)
			}
		})
	}
}
