package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		input   string
		minutes int
		wantErr bool
	}{
		{input: "00:00", minutes: 0},
		{input: "09:05", minutes: 545},
		{input: "23:59", minutes: 1439},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "9:00", wantErr: true},
		{input: "09-00", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		minutes, err := ParseClock(tc.input)
		if tc.wantErr {
			assert.ErrorIs(t, err, ErrInvalidTime, tc.input)
			continue
		}
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.minutes, minutes, tc.input)
	}
}

func TestOverlap(t *testing.T) {
	cases := []struct {
		name    string
		a       [2]string
		b       [2]string
		overlap bool
	}{
		{name: "back to back", a: [2]string{"09:00", "10:00"}, b: [2]string{"10:00", "11:00"}, overlap: false},
		{name: "disjoint", a: [2]string{"08:00", "09:00"}, b: [2]string{"13:00", "14:00"}, overlap: false},
		{name: "partial", a: [2]string{"09:00", "10:30"}, b: [2]string{"10:00", "11:00"}, overlap: true},
		{name: "containment", a: [2]string{"09:00", "12:00"}, b: [2]string{"10:00", "11:00"}, overlap: true},
		{name: "identical", a: [2]string{"09:00", "10:00"}, b: [2]string{"09:00", "10:00"}, overlap: true},
		{name: "one minute", a: [2]string{"09:00", "10:00"}, b: [2]string{"09:59", "11:00"}, overlap: true},
		{name: "zero length never overlaps", a: [2]string{"09:30", "09:30"}, b: [2]string{"09:00", "10:00"}, overlap: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Overlap(tc.a[0], tc.a[1], tc.b[0], tc.b[1])
			require.NoError(t, err)
			assert.Equal(t, tc.overlap, got)

			// Overlap is symmetric.
			flipped, err := Overlap(tc.b[0], tc.b[1], tc.a[0], tc.a[1])
			require.NoError(t, err)
			assert.Equal(t, tc.overlap, flipped)
		})
	}
}

func TestOverlapInvalidInput(t *testing.T) {
	_, err := Overlap("09:00", "banana", "10:00", "11:00")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestSpanMinutes(t *testing.T) {
	span, err := SpanMinutes("08:30", "10:00")
	require.NoError(t, err)
	assert.Equal(t, 90, span)
}
