package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/pkg/enums/drawer"
	"github.com/appetiteclub/till/pkg/enums/paymentmethod"
)

// NewActivity builds a drawer activity with a fresh id.
func NewActivity(at time.Time, kind drawer.Activity, amount decimal.Decimal, method paymentmethod.Method, description, orderID string) CashDrawerActivity {
	return CashDrawerActivity{
		ID:            uuid.NewString(),
		Timestamp:     at,
		Type:          kind.Code(),
		Amount:        amount,
		PaymentMethod: method.Code(),
		Description:   description,
		OrderID:       orderID,
	}
}
