package combo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBunchSet(t *testing.T) {
	assert.Equal(t, BunchSet{-1, 0, 2}, NewBunchSet(2, 0, -1, 0))
	assert.Nil(t, NewBunchSet())
	assert.True(t, NewBunchSet().Unconstrained())
	assert.True(t, NewBunchSet(1, 3).Contains(3))
	assert.False(t, NewBunchSet(1, 3).Contains(2))
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name   string
		a, b   BunchSet
		want   BunchSet
		wantOK bool
	}{
		{name: "both unconstrained", wantOK: true},
		{name: "left unconstrained", b: BunchSet{1}, want: BunchSet{1}, wantOK: true},
		{name: "right unconstrained", a: BunchSet{0, 1}, want: BunchSet{0, 1}, wantOK: true},
		{name: "overlap", a: BunchSet{-1, 0, 1}, b: BunchSet{0, 1, 2}, want: BunchSet{0, 1}, wantOK: true},
		{name: "equal", a: BunchSet{2}, b: BunchSet{2}, want: BunchSet{2}, wantOK: true},
		{name: "disjoint", a: BunchSet{0}, b: BunchSet{1}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Intersect(tt.a, tt.b)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUnionAndKey(t *testing.T) {
	assert.Equal(t, BunchSet{-2, 0, 1, 3}, Union(BunchSet{0, 3}, BunchSet{-2, 0, 1}))
	assert.Equal(t, "0", BunchSet{0}.Key())
	assert.Equal(t, "-1,0,1", BunchSet{-1, 0, 1}.Key())
	assert.Equal(t, "", BunchSet(nil).Key())
	assert.Equal(t, "{-1,0}", BunchSet{-1, 0}.String())
}
