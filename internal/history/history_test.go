package history

import (
	"fmt"
	"testing"

	"voro-editor/internal/kernel"
	"voro-editor/internal/symmetry"
	"voro-editor/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// recorder is an Applier that logs every call in order.
type recorder struct {
	calls []string
	log   *Log
}

func (r *recorder) add(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	if r.log != nil {
		// Replayed edits must never be recorded again.
		r.log.Record(SetActiveType{})
	}
}

func (r *recorder) CreateCells(cells []kernel.Cell) { r.add("create %d", len(cells)) }
func (r *recorder) DeleteCells(ids []kernel.ID)     { r.add("delete %v", ids) }
func (r *recorder) SetTypes(ch []TypeChange, dir Direction) {
	for _, c := range ch {
		if dir == Forward {
			r.add("type %d=%d", c.ID, c.After)
		} else {
			r.add("type %d=%d", c.ID, c.Before)
		}
	}
}
func (r *recorder) MoveCells(ids []kernel.ID, pts []r3.Vec) { r.add("move %v %v", ids, pts) }
func (r *recorder) ReplaceOrbits(out, in []symmetry.Orbit) {
	r.add("orbits -%d +%d", len(out), len(in))
}
func (r *recorder) SetSymmetry(spec *symmetry.Spec) {
	if spec == nil {
		r.add("symmetry none")
		return
	}
	r.add("symmetry %s", spec)
}
func (r *recorder) StartGeometry(Limits)              { r.add("start") }
func (r *recorder) StopGeometry()                     { r.add("stop") }
func (r *recorder) SetPalette(colors []colorutil.RGB) { r.add("palette %d", len(colors)) }
func (r *recorder) SetActiveType(typ int)             { r.add("active %d", typ) }

func TestQueueTruncatesOnPush(t *testing.T) {
	q := NewQueue(0)
	for i := 0; i < 4; i++ {
		q.Push(Transaction{Actions: []Action{SetActiveType{After: i}}})
	}
	q.Undo()
	q.Undo()
	require.True(t, q.CanRedo())

	q.Push(Transaction{Actions: []Action{SetActiveType{After: 9}}})
	assert.False(t, q.CanRedo())
	_, ok := q.Redo()
	assert.False(t, ok)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 2, q.Cursor())
}

func TestQueueLimit(t *testing.T) {
	q := NewQueue(2)
	for i := 0; i < 5; i++ {
		q.Push(Transaction{Actions: []Action{SetActiveType{After: i}}})
	}
	assert.Equal(t, 2, q.Len())
	tx, ok := q.Undo()
	require.True(t, ok)
	assert.Equal(t, SetActiveType{After: 4}, tx.Actions[0])
}

func TestQueueExhaustedIsNoop(t *testing.T) {
	q := NewQueue(0)
	_, ok := q.Undo()
	assert.False(t, ok)
	_, ok = q.Redo()
	assert.False(t, ok)
	assert.Equal(t, -1, q.Cursor())
}

func TestUndoAppliesInReverse(t *testing.T) {
	l := NewLog(0, nil)
	l.Record(SetActiveType{Before: 0, After: 2})
	l.Record(SetPalette{After: []colorutil.RGB{colorutil.Red}})
	l.Record(StartGL{})
	require.True(t, l.CommitIfChanged(nil, nil))

	r := &recorder{log: l}
	_, ok := l.Undo(r)
	require.True(t, ok)
	assert.Equal(t, []string{"stop", "palette 0", "active 0"}, r.calls)
	assert.Zero(t, l.Pending())

	r.calls = nil
	_, ok = l.Redo(r)
	require.True(t, ok)
	assert.Equal(t, []string{"active 2", "palette 1", "start"}, r.calls)
	assert.Zero(t, l.Pending())
}

func TestDragCoalescesMoves(t *testing.T) {
	l := NewLog(0, nil)
	ids := []kernel.ID{3, 4}
	l.OpenDrag()
	l.RecordMove(Move{IDs: ids, From: []r3.Vec{{X: 0}, {X: 1}}, To: []r3.Vec{{X: 1}, {X: 2}}})
	l.RecordMove(Move{IDs: ids, From: []r3.Vec{{X: 1}, {X: 2}}, To: []r3.Vec{{X: 5}, {X: 6}}})
	l.RecordMove(Move{IDs: ids, From: []r3.Vec{{X: 5}, {X: 6}}, To: []r3.Vec{{X: 7}, {X: 8}}})
	require.Equal(t, 1, l.Pending())
	l.CloseDrag()
	l.CommitIfChanged(ids, ids)

	r := &recorder{}
	tx, _ := l.Undo(r)
	m := tx.Actions[0].(Move)
	assert.Equal(t, []r3.Vec{{X: 0}, {X: 1}}, m.From, "original position kept")
	assert.Equal(t, []r3.Vec{{X: 7}, {X: 8}}, m.To)
}

func TestMovesOutsideDragAreSeparate(t *testing.T) {
	l := NewLog(0, nil)
	ids := []kernel.ID{1}
	l.RecordMove(Move{IDs: ids, From: []r3.Vec{{}}, To: []r3.Vec{{X: 1}}})
	l.RecordMove(Move{IDs: ids, From: []r3.Vec{{X: 1}}, To: []r3.Vec{{X: 2}}})
	assert.Equal(t, 2, l.Pending())

	l.OpenDrag()
	l.RecordMove(Move{IDs: []kernel.ID{2}, From: []r3.Vec{{}}, To: []r3.Vec{{X: 1}}})
	assert.Equal(t, 3, l.Pending(), "different cell set is not merged")
}

func TestSuspendSkipsRecording(t *testing.T) {
	l := NewLog(0, nil)
	l.Suspend()
	l.Suspend()
	l.Record(SetActiveType{After: 1})
	l.Resume()
	l.Record(SetActiveType{After: 2})
	assert.Zero(t, l.Pending())
	l.Resume()
	l.Record(SetActiveType{After: 3})
	assert.Equal(t, 1, l.Pending())
}

func TestCommitRequiresChange(t *testing.T) {
	l := NewLog(0, nil)
	assert.False(t, l.CommitIfChanged([]kernel.ID{1, 2}, []kernel.ID{2, 1}))
	assert.True(t, l.CommitIfChanged([]kernel.ID{1}, []kernel.ID{1, 2}))
	assert.True(t, l.CanUndo())
}

func TestSymmetryActionsInvert(t *testing.T) {
	mirror := &symmetry.Spec{Kind: symmetry.KindMirror}
	orbit := symmetry.Orbit{Primary: 1, Linked: []kernel.ID{2}}
	act := EnableSymmetry{
		After:     mirror,
		MapAfter:  []symmetry.Orbit{orbit},
		Created:   []kernel.Cell{{ID: 2}},
		Overrides: []symmetry.TypeOverride{{ID: 1, Before: 2, After: 5}},
	}

	r := &recorder{}
	Apply(r, act, Forward)
	assert.Equal(t, []string{"orbits -0 +0", "symmetry mirror", "create 1", "type 1=5", "orbits -0 +1"}, r.calls)

	r.calls = nil
	Apply(r, act, Backward)
	assert.Equal(t, []string{"orbits -1 +0", "type 1=2", "delete [2]", "symmetry none", "orbits -0 +0"}, r.calls)
}

func TestAddWithOrbitInverts(t *testing.T) {
	orbit := symmetry.Orbit{Primary: 1, Linked: []kernel.ID{2}}
	act := Add{Cells: []kernel.Cell{{ID: 1}, {ID: 2}}, Orbit: &orbit}

	r := &recorder{}
	Apply(r, act, Backward)
	assert.Equal(t, []string{"orbits -1 +0", "delete [1 2]"}, r.calls)
}

type observer struct{ committed, undone, redone int }

func (o *observer) Committed(Transaction) { o.committed++ }
func (o *observer) Undone(Transaction)    { o.undone++ }
func (o *observer) Redone(Transaction)    { o.redone++ }

func TestObserver(t *testing.T) {
	l := NewLog(0, nil)
	o := &observer{}
	l.SetObserver(o)
	l.Record(SetActiveType{After: 1})
	l.CommitIfChanged(nil, nil)
	l.Undo(&recorder{})
	l.Redo(&recorder{})
	l.Redo(&recorder{})
	assert.Equal(t, observer{1, 1, 1}, *o)
}
