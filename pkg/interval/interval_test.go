package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(hour, min int) time.Time {
	return time.Date(2024, time.September, 2, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a    Span
		b    Span
		want bool
	}{
		{"identical", New(ts(9, 0), ts(10, 0)), New(ts(9, 0), ts(10, 0)), true},
		{"partial overlap", New(ts(9, 0), ts(10, 0)), New(ts(9, 30), ts(10, 30)), true},
		{"contained", New(ts(9, 0), ts(12, 0)), New(ts(10, 0), ts(11, 0)), true},
		{"touching endpoints", New(ts(9, 0), ts(10, 0)), New(ts(10, 0), ts(11, 0)), false},
		{"touching endpoints reversed", New(ts(10, 0), ts(11, 0)), New(ts(9, 0), ts(10, 0)), false},
		{"disjoint", New(ts(8, 0), ts(9, 0)), New(ts(13, 0), ts(14, 0)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
			assert.Equal(t, tc.want, Overlaps(tc.a.Start, tc.a.End, tc.b.Start, tc.b.End))
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, New(ts(9, 0), ts(9, 30)).Valid())
	assert.False(t, New(ts(9, 0), ts(9, 0)).Valid())
	assert.False(t, New(ts(9, 30), ts(9, 0)).Valid())
}

func TestContains(t *testing.T) {
	s := New(ts(9, 0), ts(10, 0))
	assert.True(t, s.Contains(ts(9, 0)), "start is inclusive")
	assert.True(t, s.Contains(ts(9, 59)))
	assert.False(t, s.Contains(ts(10, 0)), "end is exclusive")
	assert.False(t, s.Contains(ts(8, 59)))
}
