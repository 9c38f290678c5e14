package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, LevelStrategy, lvl)
	assert.Equal(t, "Strategy", lvl.Name())

	for _, bad := range []string{"0", "5", "two", ""} {
		_, err := ParseLevel(bad)
		assert.ErrorIs(t, err, errors.ErrInvalidField, bad)
	}
	assert.Equal(t, "Unknown", Level(9).Name())
}

func TestParseStateAndStakes(t *testing.T) {
	st, err := ParseState("committed")
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, st)

	_, err = ParseState("done")
	assert.ErrorIs(t, err, errors.ErrInvalidField)

	sk, err := ParseStakes("low")
	require.NoError(t, err)
	assert.Equal(t, StakesLow, sk)

	_, err = ParseStakes("")
	assert.ErrorIs(t, err, errors.ErrInvalidField)
	assert.True(t, Stakes("").Valid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateSuggested, StateCommitted, true},
		{StateSuggested, StateSuperseded, true},
		{StateCommitted, StateSuperseded, true},
		{StateCommitted, StateCommitted, true},
		{StateSuperseded, StateSuperseded, true},
		{StateCommitted, StateSuggested, false},
		{StateSuperseded, StateSuggested, false},
		{StateSuperseded, StateCommitted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestValidNewID(t *testing.T) {
	assert.True(t, ValidNewID("DEC-001"))
	assert.True(t, ValidNewID("DEC-1234"))
	assert.False(t, ValidNewID("DEC-01"))
	assert.False(t, ValidNewID("dec-001"))
	assert.False(t, ValidNewID("ADR-001"))
}

func TestParseIDList(t *testing.T) {
	assert.Equal(t, []string{}, ParseIDList("[]"))
	assert.Equal(t, []string{}, ParseIDList(" "))
	assert.Equal(t, []string{"DEC-001", "DEC-003"}, ParseIDList("DEC-001, DEC-003,"))
	assert.Equal(t, "[]", FormatIDList(nil))
	assert.Equal(t, "DEC-001, DEC-003", FormatIDList([]string{"DEC-001", "DEC-003"}))
}

func TestClone(t *testing.T) {
	d := &Decision{ID: "DEC-002", DependsOn: []string{"DEC-001"}}
	c := d.Clone()
	c.DependsOn[0] = "DEC-009"
	assert.Equal(t, "DEC-001", d.DependsOn[0])
	assert.True(t, d.DependsOnID("DEC-001"))
}
