package service_test

import (
	"testing"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/config"
	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// newCalculatorAt pins the schedule clock inside August 2026 so tests are
// deterministic. The shop picks up on Fridays with a two-day 18:00 cutoff:
// at Tuesday the 25th the Friday 2026-08-28 pickup is open for ordering, at
// Thursday the 27th it is locked.
func newCalculatorAt(t *testing.T, day int, hour int) *schedule.Calculator {
	t.Helper()

	calc, err := schedule.NewCalculator(config.Schedule{
		PickupWeekday: "friday",
		DatesOffered:  4,
		CutoffDays:    2,
		CutoffHour:    18,
		Timezone:      "Europe/Berlin",
	})
	require.NoError(t, err)

	calc.Now = func() time.Time {
		return time.Date(2026, 8, day, hour, 0, 0, 0, calc.Location())
	}

	return calc
}

func fridayPickup(calc *schedule.Calculator) time.Time {
	return time.Date(2026, 8, 28, 0, 0, 0, 0, calc.Location())
}

func lineItem(id uuid.UUID, name, qty, price string) models.LineItem {
	return models.LineItem{
		ArticleID: id,
		Name:      name,
		Unit:      models.UnitKilogram,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  decimal.RequireFromString(qty),
	}
}
