package engagement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"igfunnel/pkg/record"
)

func TestPasses(t *testing.T) {
	c := Criteria{MinLikes: 1000, MinComments: 50}

	tests := []struct {
		name string
		rec  record.Record
		want bool
	}{
		{
			name: "both thresholds met",
			rec:  record.Record{"likes": 1500, "comments": 80},
			want: true,
		},
		{
			name: "exactly at thresholds",
			rec:  record.Record{"likes": 1000, "comments": 50},
			want: true,
		},
		{
			name: "likes below threshold",
			rec:  record.Record{"likes": 999, "comments": 80},
			want: false,
		},
		{
			name: "comments below threshold",
			rec:  record.Record{"likes": 1500, "comments": 49},
			want: false,
		},
		{
			name: "missing likes counts as zero",
			rec:  record.Record{"comments": 80},
			want: false,
		},
		{
			name: "missing comments counts as zero",
			rec:  record.Record{"likes": 1500},
			want: false,
		},
		{
			name: "empty record",
			rec:  record.Record{},
			want: false,
		},
		{
			name: "json decoded float counters",
			rec:  record.Record{"likes": float64(2000), "comments": float64(60)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Passes(tt.rec))
		})
	}
}

func TestZeroCriteriaPassesEverything(t *testing.T) {
	c := Criteria{}
	assert.True(t, c.Passes(record.Record{}))
	assert.True(t, c.Passes(record.Record{"likes": 0, "comments": 0}))
}

func TestFollowerThreshold(t *testing.T) {
	c := Criteria{MinFollowers: 10000}

	assert.True(t, c.Passes(record.Record{"followers": 10000}))
	assert.False(t, c.Passes(record.Record{"followers": 9999}))
	assert.False(t, c.Passes(record.Record{}))
}

func TestApplyPreservesOrder(t *testing.T) {
	c := Criteria{MinLikes: 100}
	in := []record.Record{
		{"url": "a", "likes": 200},
		{"url": "b", "likes": 50},
		{"url": "c", "likes": 300},
		{"url": "d", "likes": 150},
	}

	out := Apply(in, c)

	assert.Len(t, out, 3)
	assert.Equal(t, "a", out[0].String("url"))
	assert.Equal(t, "c", out[1].String("url"))
	assert.Equal(t, "d", out[2].String("url"))
	// Input untouched.
	assert.Len(t, in, 4)
}

func TestApplyMonotonic(t *testing.T) {
	in := []record.Record{
		{"likes": 100, "comments": 10},
		{"likes": 500, "comments": 20},
		{"likes": 2000, "comments": 100},
	}

	loose := Apply(in, Criteria{MinLikes: 100})
	strict := Apply(in, Criteria{MinLikes: 100, MinComments: 50})

	// Adding a threshold can only shrink the survivor set.
	assert.LessOrEqual(t, len(strict), len(loose))
	for _, r := range strict {
		assert.Contains(t, loose, r)
	}
}
