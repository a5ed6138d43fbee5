package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-signal-bot/internal/entity"
	"trade-signal-bot/pkg/utils"
)

func TestComputeResult(t *testing.T) {
	cases := []struct {
		name      string
		direction entity.Direction
		entry     string
		stop      string
		closes    []entity.Close
		want      string
		ok        bool
	}{
		{"long full close at 1R", entity.DirectionLong, "100", "90", []entity.Close{{Price: "110", SizePercent: 100}}, "1.00", true},
		{"short full close at 2R", entity.DirectionShort, "100", "110", []entity.Close{{Price: "80", SizePercent: 100}}, "2.00", true},
		{"long loss", entity.DirectionLong, "100", "90", []entity.Close{{Price: "90", SizePercent: 100}}, "-1.00", true},
		{"partials", entity.DirectionLong, "100", "90", []entity.Close{{Price: "110", SizePercent: 50}, {Price: "120", SizePercent: 50}}, "1.50", true},
		{"rounding", entity.DirectionLong, "100", "97", []entity.Close{{Price: "101", SizePercent: 100}}, "0.33", true},
		{"comma decimals", entity.DirectionLong, "1,5", "1,0", []entity.Close{{Price: "2,0", SizePercent: 100}}, "1.00", true},
		{"non-numeric close ignored", entity.DirectionLong, "100", "90", []entity.Close{{Price: "n/a", SizePercent: 100}}, "0.00", true},
		{"no closes", entity.DirectionLong, "100", "90", nil, "0.00", true},
		{"entry equals stop", entity.DirectionLong, "100", "100", []entity.Close{{Price: "110", SizePercent: 100}}, "", false},
		{"non-numeric entry", entity.DirectionLong, "market", "90", nil, "", false},
		{"non-numeric stop", entity.DirectionLong, "100", "", nil, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := entity.Signal{Direction: tc.direction, Entry: tc.entry, Stop: tc.stop, Closes: tc.closes}
			got, ok := ComputeResult(s)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got.StringFixed(2))
			}
		})
	}
}

func TestDisplayResult(t *testing.T) {
	s := entity.Signal{Direction: entity.DirectionLong, Entry: "100", Stop: "90",
		Closes: []entity.Close{{Price: "110", SizePercent: 100}}}

	got, ok := DisplayResult(s)
	require.True(t, ok)
	assert.Equal(t, "1.00", got)

	s.ResultOverride = utils.ToPointer("2,5")
	got, ok = DisplayResult(s)
	require.True(t, ok)
	assert.Equal(t, "2.50", got)

	_, ok = DisplayResult(entity.Signal{Entry: "1", Stop: "1"})
	assert.False(t, ok)
}

func TestParseNumber(t *testing.T) {
	for raw, want := range map[string]string{"42": "42", " 0.5 ": "0.5", "1,25": "1.25", "-3": "-3"} {
		d, ok := ParseNumber(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, d.String())
	}
	for _, raw := range []string{"", "abc", "1.2.3"} {
		_, ok := ParseNumber(raw)
		assert.False(t, ok, raw)
	}
}
