package schedule_test

import (
	"testing"
	"time"

	"github.com/farmbasket/farmbasket-backend/internal/config"
	"github.com/farmbasket/farmbasket-backend/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlinSchedule() config.Schedule {
	return config.Schedule{
		PickupWeekday: "friday",
		DatesOffered:  4,
		CutoffDays:    2,
		CutoffHour:    18,
		Timezone:      "Europe/Berlin",
	}
}

// newCalculatorAt pins the calculator clock to a fixed Berlin wall time.
func newCalculatorAt(t *testing.T, wallTime string) *schedule.Calculator {
	t.Helper()

	calc, err := schedule.NewCalculator(berlinSchedule())
	require.NoError(t, err)

	now, err := time.ParseInLocation("2006-01-02 15:04:05", wallTime, calc.Location())
	require.NoError(t, err)

	calc.Now = func() time.Time { return now }

	return calc
}

func TestNewCalculator(t *testing.T) {
	t.Run("Rejects unknown weekday", func(t *testing.T) {
		cfg := berlinSchedule()
		cfg.PickupWeekday = "someday"

		_, err := schedule.NewCalculator(cfg)
		require.Error(t, err)
	})

	t.Run("Rejects invalid timezone", func(t *testing.T) {
		cfg := berlinSchedule()
		cfg.Timezone = "Nowhere/Void"

		_, err := schedule.NewCalculator(cfg)
		require.Error(t, err)
	})

	t.Run("Rejects zero dates offered", func(t *testing.T) {
		cfg := berlinSchedule()
		cfg.DatesOffered = 0

		_, err := schedule.NewCalculator(cfg)
		require.Error(t, err)
	})
}

func TestAvailablePickupDates(t *testing.T) {
	// 2026-08-25 is a Tuesday; the next Friday is 2026-08-28.
	t.Run("Lists the next weekly dates while the nearest is still open", func(t *testing.T) {
		calc := newCalculatorAt(t, "2026-08-25 10:00:00")

		dates := calc.AvailablePickupDates()
		require.Len(t, dates, 4)
		assert.Equal(t, "20260828", calc.DateKey(dates[0]))
		assert.Equal(t, "20260904", calc.DateKey(dates[1]))
		assert.Equal(t, "20260911", calc.DateKey(dates[2]))
		assert.Equal(t, "20260918", calc.DateKey(dates[3]))
	})

	t.Run("Skips the nearest date once its deadline passed", func(t *testing.T) {
		// Thursday, one day before the 2026-08-28 pickup. Its deadline was
		// Wednesday 18:00, so the list starts a week later.
		calc := newCalculatorAt(t, "2026-08-27 09:00:00")

		dates := calc.AvailablePickupDates()
		require.Len(t, dates, 4)
		assert.Equal(t, "20260904", calc.DateKey(dates[0]))
		assert.Equal(t, "20260925", calc.DateKey(dates[3]))
	})

	t.Run("Dates are midnight in the shop timezone", func(t *testing.T) {
		calc := newCalculatorAt(t, "2026-08-25 10:00:00")

		first := calc.AvailablePickupDates()[0]
		assert.Equal(t, 0, first.Hour())
		assert.Equal(t, "Europe/Berlin", first.Location().String())
		assert.Equal(t, time.Friday, first.Weekday())
	})
}

func TestIsPickupDateValid(t *testing.T) {
	calc := newCalculatorAt(t, "2026-08-25 10:00:00")

	t.Run("Offered date accepted regardless of time of day", func(t *testing.T) {
		noon := time.Date(2026, 8, 28, 12, 30, 0, 0, calc.Location())
		assert.True(t, calc.IsPickupDateValid(noon))
	})

	t.Run("Date past its deadline rejected", func(t *testing.T) {
		closed := newCalculatorAt(t, "2026-08-27 09:00:00")
		friday := time.Date(2026, 8, 28, 0, 0, 0, 0, closed.Location())
		assert.False(t, closed.IsPickupDateValid(friday))
	})

	t.Run("Non-pickup weekday rejected", func(t *testing.T) {
		monday := time.Date(2026, 8, 31, 0, 0, 0, 0, calc.Location())
		assert.False(t, calc.IsPickupDateValid(monday))
	})

	t.Run("Date beyond the offered horizon rejected", func(t *testing.T) {
		farFriday := time.Date(2026, 12, 25, 0, 0, 0, 0, calc.Location())
		assert.False(t, calc.IsPickupDateValid(farFriday))
	})
}

func TestEditDeadline(t *testing.T) {
	calc := newCalculatorAt(t, "2026-08-25 10:00:00")

	pickup := time.Date(2026, 8, 28, 0, 0, 0, 0, calc.Location())
	deadline := calc.EditDeadline(pickup)

	assert.Equal(t, time.Date(2026, 8, 26, 18, 0, 0, 0, calc.Location()), deadline)
	assert.Equal(t, time.Wednesday, deadline.Weekday())
}

func TestCanEdit(t *testing.T) {
	pickup := func(calc *schedule.Calculator) time.Time {
		return time.Date(2026, 8, 28, 0, 0, 0, 0, calc.Location())
	}

	t.Run("Open strictly before the deadline", func(t *testing.T) {
		calc := newCalculatorAt(t, "2026-08-26 17:59:59")
		assert.True(t, calc.CanEdit(pickup(calc)))
	})

	t.Run("Closed exactly at the deadline", func(t *testing.T) {
		calc := newCalculatorAt(t, "2026-08-26 18:00:00")
		assert.False(t, calc.CanEdit(pickup(calc)))
	})

	t.Run("Closed after the deadline", func(t *testing.T) {
		calc := newCalculatorAt(t, "2026-08-27 08:00:00")
		assert.False(t, calc.CanEdit(pickup(calc)))
	})
}

func TestDateKeyRoundTrip(t *testing.T) {
	calc := newCalculatorAt(t, "2026-08-25 10:00:00")

	t.Run("Key format is YYYYMMDD", func(t *testing.T) {
		pickup := time.Date(2026, 8, 28, 0, 0, 0, 0, calc.Location())
		assert.Equal(t, "20260828", calc.DateKey(pickup))
	})

	t.Run("Key renders in shop timezone for foreign timestamps", func(t *testing.T) {
		// 23:30 UTC on the 27th is already the 28th in Berlin.
		utc := time.Date(2026, 8, 27, 23, 30, 0, 0, time.UTC)
		assert.Equal(t, "20260828", calc.DateKey(utc))
	})

	t.Run("ParseDateKey returns shop-timezone midnight", func(t *testing.T) {
		day, err := calc.ParseDateKey("20260828")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 28, 0, 0, 0, 0, calc.Location()), day)
	})

	t.Run("Malformed key rejected", func(t *testing.T) {
		_, err := calc.ParseDateKey("2026-08-28")
		require.Error(t, err)

		_, err = calc.ParseDateKey("notadate")
		require.Error(t, err)
	})

	t.Run("TodayKey follows the pinned clock", func(t *testing.T) {
		assert.Equal(t, "20260825", calc.TodayKey())
	})
}
