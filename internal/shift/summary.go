package shift

import (
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/till/internal/ledger"
	"github.com/appetiteclub/till/pkg/enums/drawer"
	"github.com/appetiteclub/till/pkg/enums/paymentmethod"
)

// Summary is the running cash position of a shift.
type Summary struct {
	ShiftID              string          `json:"shiftId"`
	OpeningFloat         decimal.Decimal `json:"openingFloat"`
	ExpectedCashInDrawer decimal.Decimal `json:"expectedCashInDrawer"`
	ledger.ShiftTotals
}

// ComputeSummary folds the shift's drawer activities. Refunds of cash bills
// count as paid out; refunds of QR bills never touched the drawer. Orders are
// needed only to recognise which refunds belong to cancelled bills.
func ComputeSummary(s *ledger.Shift, orders []ledger.Order) Summary {
	sum := Summary{}
	if s == nil {
		return sum
	}
	sum.ShiftID = s.ID
	sum.OpeningFloat = s.OpeningFloatAmount

	cancelled := make(map[string]bool)
	for _, o := range orders {
		if o.IsCancelled() {
			cancelled[o.ID] = true
		}
	}

	cash := paymentmethod.Methods.Cash.Code()
	qr := paymentmethod.Methods.QR.Code()

	for _, a := range s.Activities {
		switch a.Type {
		case drawer.Activities.Sale.Code():
			sum.TotalSales = sum.TotalSales.Add(a.Amount)
			switch a.PaymentMethod {
			case cash:
				sum.TotalCashSales = sum.TotalCashSales.Add(a.Amount)
			case qr:
				sum.TotalQrSales = sum.TotalQrSales.Add(a.Amount)
			}
		case drawer.Activities.Refund.Code():
			sum.TotalRefunds = sum.TotalRefunds.Add(a.Amount)
			if a.PaymentMethod == cash {
				sum.TotalPaidOut = sum.TotalPaidOut.Add(a.Amount)
			}
			if cancelled[a.OrderID] {
				sum.TotalCancellationsValue = sum.TotalCancellationsValue.Add(a.Amount)
				sum.TotalCancellationsCount++
			}
		case drawer.Activities.PaidIn.Code():
			sum.TotalPaidIn = sum.TotalPaidIn.Add(a.Amount)
		case drawer.Activities.PaidOut.Code():
			sum.TotalPaidOut = sum.TotalPaidOut.Add(a.Amount)
		}
	}

	sum.ExpectedCashInDrawer = s.OpeningFloatAmount.
		Add(sum.TotalCashSales).
		Add(sum.TotalPaidIn).
		Sub(sum.TotalPaidOut)

	return sum
}
