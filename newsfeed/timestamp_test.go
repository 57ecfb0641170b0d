package newsfeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseTimestamp_FirstMatchWins verifies layouts are tried in order
func TestParseTimestamp_FirstMatchWins(t *testing.T) {
	got, err := ParseTimestamp("01-03-2018 | 14:30", []string{"2006-01-02", "02-01-2006 | 15:04"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 3, 1, 14, 30, 0, 0, time.UTC), got)
}

// TestParseTimestamp_OrderIndependentForSingleMatch verifies reordering the
// layouts does not change the result when only one matches
func TestParseTimestamp_OrderIndependentForSingleMatch(t *testing.T) {
	layouts := []string{"02-01-2006 | 15:04", PublDateLayout, time.RFC3339Nano}
	reversed := []string{time.RFC3339Nano, PublDateLayout, "02-01-2006 | 15:04"}

	inputs := []string{"01-03-2018 | 14:30", "2018-03-01 14:30:00", "2018-03-01T14:30:00.5Z"}
	for _, in := range inputs {
		a, err := ParseTimestamp(in, layouts)
		require.NoError(t, err, in)
		b, err := ParseTimestamp(in, reversed)
		require.NoError(t, err, in)

		assert.Equal(t, "2018-03-01", a.Format(DateLayout), in)
		assert.Equal(t, a.Format(DateLayout), b.Format(DateLayout), in)
	}
}

// TestParseTimestamp_TrimsWhitespace verifies surrounding whitespace is ignored
func TestParseTimestamp_TrimsWhitespace(t *testing.T) {
	got, err := ParseTimestamp("\n  2018-03-01 00:00:00 ", PublDateLayouts)
	require.NoError(t, err)
	assert.Equal(t, "2018-03-01", got.Format(DateLayout))
}

// TestParseTimestamp_NoMatch verifies an unknown format is an error
func TestParseTimestamp_NoMatch(t *testing.T) {
	_, err := ParseTimestamp("donderdag 1 maart", PublDateLayouts)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTimestamp)
}

// TestParseDate verifies both accepted date spellings
func TestParseDate(t *testing.T) {
	want := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)

	got, err := ParseDate("2018-03-01")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = ParseDate("20180301")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseDate("03/01/2018")
	assert.Error(t, err)
}
