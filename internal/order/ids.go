package order

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/appetiteclub/till/internal/ledger"
)

// NextDailyID returns day-NNNN where NNNN is one past the highest sequence
// already used today. Gaps are never refilled.
func NextDailyID(day string, orders []ledger.Order) string {
	prefix := day + "-"
	highest := 0
	for _, o := range orders {
		if !strings.HasPrefix(o.ID, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(o.ID, prefix))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1)
}
