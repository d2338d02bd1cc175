package generate

import (
	"testing"

	"voro-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKinds(t *testing.T) {
	box := geometry.Cube(10)
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			l, err := Generate(Params{Kind: kind, Count: 50, Seed: 7, Fill: 30}, box, 2)
			require.NoError(t, err)
			require.Len(t, l.Points, 50)
			require.Len(t, l.Types, 50)
			for i, p := range l.Points {
				assert.True(t, box.Contains(p), "point %d outside box: %v", i, p)
				assert.Contains(t, []int{0, 2}, l.Types[i])
			}
		})
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := Params{Kind: Uniform, Count: 20, Seed: 42, Fill: 50}
	a, err := Generate(p, geometry.Cube(10), 1)
	require.NoError(t, err)
	b, err := Generate(p, geometry.Cube(10), 1)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	p.Seed = 43
	c, _ := Generate(p, geometry.Cube(10), 1)
	assert.NotEqual(t, a.Points, c.Points)
}

func TestZeroFillActivatesCentermost(t *testing.T) {
	l, err := Generate(Params{Kind: Grid, Count: 27, Seed: 1}, geometry.Cube(9), 3)
	require.NoError(t, err)
	active := 0
	for i, typ := range l.Types {
		if typ > 0 {
			active++
			assert.InDelta(t, 0, l.Points[i].X, 0.01)
			assert.InDelta(t, 0, l.Points[i].Y, 0.01)
			assert.InDelta(t, 0, l.Points[i].Z, 0.01)
		}
	}
	assert.Equal(t, 1, active)
}

func TestFullFill(t *testing.T) {
	l, err := Generate(Params{Kind: Spiral, Count: 10, Fill: 100}, geometry.Cube(5), 1)
	require.NoError(t, err)
	for _, typ := range l.Types {
		assert.Equal(t, 1, typ)
	}
}

func TestGenerateRejects(t *testing.T) {
	_, err := Generate(Params{Kind: "lattice", Count: 3}, geometry.Cube(1), 1)
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = Generate(Params{Count: -1}, geometry.Cube(1), 1)
	assert.Error(t, err)
}
