package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1610612747", "1610612747"},
		{"1610612747.0", "1610612747"},
		{" 1610612747.00 ", "1610612747"},
		{"1.610612747e+09", "1610612747"},
		{"1610612747.5", "1610612747.5"},
		{"LAL", "LAL"},
		{"", ""},
		{"NaN", "NaN"},
		{"1e30", "1e30"},
		{"-1e30", "-1e30"},
		{"9.3e18", "9.3e18"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeID(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "1610612738", NormalizeValue(float64(1610612738)))
	assert.Equal(t, "1610612738", NormalizeValue("1610612738.0"))
	assert.Equal(t, "7", NormalizeValue(7))
	assert.Equal(t, "", NormalizeValue(nil))
	assert.Equal(t, "", NormalizeValue(true))
}

func TestAllTeams(t *testing.T) {
	all := All()
	require.Len(t, all, 30)

	seen := make(map[string]bool)
	for _, team := range all {
		assert.False(t, seen[team.ID], "duplicate id %s", team.ID)
		seen[team.ID] = true
		assert.Equal(t, team.ID, NormalizeID(team.ID))
	}
}

func TestLookups(t *testing.T) {
	team, ok := ByID("1610612747.0")
	require.True(t, ok)
	assert.Equal(t, "LAL", team.Abbreviation)

	team, ok = ByAbbreviation("gs")
	require.True(t, ok)
	assert.Equal(t, "1610612744", team.ID)

	team, ok = ByAbbreviation("UTAH")
	require.True(t, ok)
	assert.Equal(t, "UTA", team.Abbreviation)

	_, ok = ByAbbreviation("XYZ")
	assert.False(t, ok)
}
