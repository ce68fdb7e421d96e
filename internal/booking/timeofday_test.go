package booking

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"00:00":    0,
		"09:30":    9*60 + 30,
		"23:59":    23*60 + 59,
		"10:15:42": 10*60 + 15,
		" 08:05 ":  8*60 + 5,
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "24:00", "9am", "12:60", "noon"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, bad)
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(9*60+5).String())

	raw, err := json.Marshal(struct {
		Start TimeOfDay `json:"start"`
	}{MustTimeOfDay("14:30")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"14:30"}`, string(raw))

	var decoded struct {
		Start TimeOfDay `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"07:45:00"}`), &decoded))
	assert.Equal(t, MustTimeOfDay("07:45"), decoded.Start)
}

func TestTimeOfDayPgCodec(t *testing.T) {
	v, err := MustTimeOfDay("13:20").TimeValue()
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, int64((13*60+20)*60)*1_000_000, v.Microseconds)

	var back TimeOfDay
	require.NoError(t, back.ScanTime(v))
	assert.Equal(t, MustTimeOfDay("13:20"), back)

	assert.Error(t, back.ScanTime(pgtype.Time{}))
}

func TestWeekHelpers(t *testing.T) {
	wednesday := time.Date(2025, 3, 12, 15, 4, 0, 0, time.UTC)
	sunday := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, monday, WeekStart(wednesday))
	assert.Equal(t, monday, WeekStart(monday))
	assert.Equal(t, monday, WeekStart(sunday))

	days := Workweek(wednesday)
	require.Len(t, days, 5)
	assert.Equal(t, monday, days[0])
	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), days[4])

	assert.True(t, IsWeekday(wednesday))
	assert.False(t, IsWeekday(sunday))
}

func TestFormValidate(t *testing.T) {
	valid := func() Form {
		return Form{
			Date:      monday,
			StartTime: MustTimeOfDay("09:00"),
			EndTime:   MustTimeOfDay("10:00"),
			Title:     " Staff Meeting ",
			BookedBy:  "A. Officer",
		}
	}

	f := valid()
	require.NoError(t, f.Validate())
	assert.Equal(t, "Staff Meeting", f.Title)

	cases := map[string]func(*Form){
		"missing title":  func(f *Form) { f.Title = "   " },
		"missing booker": func(f *Form) { f.BookedBy = "" },
		"missing date":   func(f *Form) { f.Date = time.Time{} },
		"empty range":    func(f *Form) { f.EndTime = f.StartTime },
		"reversed range": func(f *Form) { f.StartTime, f.EndTime = f.EndTime, f.StartTime },
		"weekend":        func(f *Form) { f.Date = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) },
		"out of range":   func(f *Form) { f.EndTime = TimeOfDay(minutesPerDay) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := valid()
			mutate(&f)
			err := f.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}
