package paymentmethod

import (
	"testing"
)

func TestPaymentMethod(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantLabel  string
		wantTender bool
	}{
		{name: "cash", code: "cash", wantLabel: "Cash", wantTender: true},
		{name: "qr", code: "qr", wantLabel: "QR", wantTender: true},
		{name: "none", code: "none", wantLabel: "None", wantTender: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ByName(tt.code)
			if m == nil {
				t.Fatalf("ByName(%q) = nil", tt.code)
			}
			if m.Label() != tt.wantLabel {
				t.Errorf("Label() = %q, want %q", m.Label(), tt.wantLabel)
			}
			if m.Tender() != tt.wantTender {
				t.Errorf("Tender() = %v, want %v", m.Tender(), tt.wantTender)
			}
		})
	}

	if ByName("card") != nil {
		t.Error("ByName(card) should be nil")
	}
}
