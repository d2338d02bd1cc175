package registry

import (
	"testing"

	"voro-editor/internal/kernel"
	"voro-editor/internal/kernel/refkernel"
	"voro-editor/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newRegistry() *Registry {
	return New(refkernel.New(geometry.Cube(10)))
}

func TestIDsSurviveSwapPop(t *testing.T) {
	r := newRegistry()
	a := r.Add(r3.Vec{X: 1}, 1)
	b := r.Add(r3.Vec{X: 2}, 2)
	c := r.Add(r3.Vec{X: 3}, 3)

	require.True(t, r.Delete(a))
	assert.False(t, r.Exists(a))

	pos, ok := r.Position(c)
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 3}, pos)
	typ, ok := r.Type(b)
	require.True(t, ok)
	assert.Equal(t, 2, typ)
}

func TestRetiredIDNotFound(t *testing.T) {
	r := newRegistry()
	a := r.Add(r3.Vec{}, 0)
	r.Delete(a)

	index, ok := r.IndexOf(a)
	assert.False(t, ok)
	assert.Equal(t, -1, index, "retired ids never resolve to slot 0")
	assert.False(t, r.Delete(a))

	_, ok = r.IndexOf(kernel.NoID)
	assert.False(t, ok)
}

func TestResurrectKeepsOriginalID(t *testing.T) {
	r := newRegistry()
	a := r.Add(r3.Vec{X: 1}, 2)
	r.Add(r3.Vec{X: 2}, 0)
	r.Delete(a)

	r.Resurrect(a, r3.Vec{X: 1}, 2)
	require.True(t, r.Exists(a))
	assert.Equal(t, 1, r.Aliases())
	assert.Contains(t, r.IDs(), a)

	// The kernel's fresh internal id stays hidden behind the alias.
	hidden := r.Kernel().StableID(r.Kernel().CellCount() - 1)
	assert.NotEqual(t, a, hidden)
	_, ok := r.IndexOf(hidden)
	assert.False(t, ok)

	c, ok := r.Cell(a)
	require.True(t, ok)
	assert.Equal(t, 2, c.Type)
	assert.True(t, r.Check())

	r.Delete(a)
	assert.Zero(t, r.Aliases())
	assert.True(t, r.Check())
}

func TestResurrectLiveIDIsNoop(t *testing.T) {
	r := newRegistry()
	a := r.Add(r3.Vec{}, 1)
	r.Resurrect(a, r3.Vec{X: 5}, 1)
	assert.Equal(t, 1, r.Count())
}

func TestMoveManySkipsRetired(t *testing.T) {
	r := newRegistry()
	a := r.Add(r3.Vec{X: 1}, 1)
	b := r.Add(r3.Vec{X: 2}, 1)
	r.Delete(a)

	r.MoveMany([]kernel.ID{a, b}, []r3.Vec{{Y: 1}, {Y: 2}})
	pos, _ := r.Position(b)
	assert.Equal(t, r3.Vec{Y: 2}, pos)
}

func TestAtPosition(t *testing.T) {
	r := newRegistry()
	a := r.Add(r3.Vec{X: 1, Y: 1}, 0)
	id, ok := r.AtPosition(r3.Vec{X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, a, id)

	_, ok = r.AtPosition(r3.Vec{X: -4})
	assert.False(t, ok)
}
