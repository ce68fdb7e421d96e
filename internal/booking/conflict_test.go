package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var (
	monday  = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tuesday = time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
)

func slot(id string, date time.Time, start, end string) *Booking {
	return &Booking{ID: id, Date: date, StartTime: MustTimeOfDay(start), EndTime: MustTimeOfDay(end)}
}

func TestHasConflictMatchesHalfOpenOverlap(t *testing.T) {
	// Exhaustive over a small grid of 30-minute boundaries.
	var points []TimeOfDay
	for m := 8 * 60; m <= 12*60; m += 30 {
		points = append(points, TimeOfDay(m))
	}

	for _, as := range points {
		for _, ae := range points {
			if as >= ae {
				continue
			}
			for _, bs := range points {
				for _, be := range points {
					if bs >= be {
						continue
					}
					existing := []*Booking{{ID: "b", Date: monday, StartTime: bs, EndTime: be}}
					want := as < be && bs < ae
					assert.Equal(t, want, HasConflict(monday, as, ae, existing),
						"[%s,%s) vs [%s,%s)", as, ae, bs, be)
				}
			}
		}
	}
}

func TestHasConflictCases(t *testing.T) {
	cases := []struct {
		name       string
		date       time.Time
		start, end string
		existing   []*Booking
		want       bool
	}{
		{"empty set", monday, "09:00", "10:00", nil, false},
		{"back to back after", monday, "10:00", "11:00", []*Booking{slot("a", monday, "09:00", "10:00")}, false},
		{"back to back before", monday, "08:00", "09:00", []*Booking{slot("a", monday, "09:00", "10:00")}, false},
		{"partial overlap", monday, "09:30", "10:30", []*Booking{slot("a", monday, "09:00", "10:00")}, true},
		{"identical", monday, "09:00", "10:00", []*Booking{slot("a", monday, "09:00", "10:00")}, true},
		{"containment", monday, "09:00", "17:00", []*Booking{slot("a", monday, "10:00", "10:30")}, true},
		{"contained", monday, "10:00", "10:30", []*Booking{slot("a", monday, "09:00", "17:00")}, true},
		{"other date ignored", monday, "09:00", "10:00", []*Booking{slot("a", tuesday, "09:00", "10:00")}, false},
		{"second booking overlaps", monday, "13:00", "14:00", []*Booking{
			slot("a", monday, "09:00", "10:00"),
			slot("b", tuesday, "13:00", "14:00"),
			slot("c", monday, "13:30", "15:00"),
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HasConflict(tc.date, MustTimeOfDay(tc.start), MustTimeOfDay(tc.end), tc.existing)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHasConflictIgnoresClockOfDate(t *testing.T) {
	existing := []*Booking{slot("a", monday, "09:00", "10:00")}
	lateMonday := monday.Add(23 * time.Hour)
	assert.True(t, HasConflict(lateMonday, MustTimeOfDay("09:15"), MustTimeOfDay("09:45"), existing))
}

func TestHasConflictIsPure(t *testing.T) {
	existing := []*Booking{slot("a", monday, "09:00", "10:00"), slot("b", monday, "11:00", "12:00")}
	snapshot := []*Booking{existing[0], existing[1]}

	for i := 0; i < 3; i++ {
		assert.True(t, HasConflict(monday, MustTimeOfDay("11:30"), MustTimeOfDay("12:30"), existing))
	}
	assert.Equal(t, snapshot, existing)
}

func TestSelfExclusionOnUpdate(t *testing.T) {
	x := slot("x", monday, "09:00", "10:00")
	others := []*Booking{x, slot("y", monday, "13:00", "14:00")}

	// Re-saving X with unchanged times.
	assert.False(t, HasConflict(monday, x.StartTime, x.EndTime, ExcludeID(others, x.ID)))
	// Forgetting to exclude X makes it conflict with itself.
	assert.True(t, HasConflict(monday, x.StartTime, x.EndTime, others))
	// ExcludeID leaves the input intact.
	assert.Len(t, others, 2)
}

func TestFirstConflictReturnsOffender(t *testing.T) {
	existing := []*Booking{slot("a", monday, "09:00", "10:00"), slot("b", monday, "10:00", "11:00")}
	got := FirstConflict(monday, MustTimeOfDay("10:15"), MustTimeOfDay("10:45"), existing)
	if assert.NotNil(t, got) {
		assert.Equal(t, "b", got.ID)
	}
}
