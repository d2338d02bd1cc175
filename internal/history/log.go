package history

import (
	"log/slog"
	"slices"

	"voro-editor/internal/kernel"
)

// Observer is notified of history changes.
type Observer interface {
	Committed(tx Transaction)
	Undone(tx Transaction)
	Redone(tx Transaction)
}

// Log buffers the actions of the gesture in progress and commits them as
// one transaction.
type Log struct {
	q         *Queue
	pending   []Action
	suspended int
	replaying bool
	dragging  bool
	observer  Observer
	logger    *slog.Logger
}

// NewLog creates a log keeping at most limit transactions.
func NewLog(limit int, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{q: NewQueue(limit), logger: logger}
}

// SetObserver installs o; nil removes it.
func (l *Log) SetObserver(o Observer) { l.observer = o }

// Tracking reports whether Record currently keeps actions.
func (l *Log) Tracking() bool { return l.suspended == 0 && !l.replaying }

// Suspend stops recording until the matching Resume. Calls nest.
func (l *Log) Suspend() { l.suspended++ }

// Resume undoes one Suspend.
func (l *Log) Resume() {
	if l.suspended > 0 {
		l.suspended--
	}
}

// Record appends act to the pending transaction.
func (l *Log) Record(act Action) {
	if !l.Tracking() {
		return
	}
	l.pending = append(l.pending, act)
}

// RecordMove records a move. While a drag is open, a move of the same cells
// as the last pending move extends it instead, keeping the original From.
func (l *Log) RecordMove(m Move) {
	if !l.Tracking() {
		return
	}
	if l.dragging && len(l.pending) > 0 {
		if last, ok := l.pending[len(l.pending)-1].(Move); ok && slices.Equal(last.IDs, m.IDs) {
			l.pending[len(l.pending)-1] = Move{IDs: last.IDs, From: last.From, To: slices.Clone(m.To)}
			return
		}
	}
	l.pending = append(l.pending, m)
}

// OpenDrag starts move coalescing.
func (l *Log) OpenDrag() { l.dragging = true }

// CloseDrag ends move coalescing.
func (l *Log) CloseDrag() { l.dragging = false }

// Dragging reports whether a drag is open.
func (l *Log) Dragging() bool { return l.dragging }

// Pending returns the number of uncommitted actions.
func (l *Log) Pending() int { return len(l.pending) }

// Discard drops the pending actions without committing them.
func (l *Log) Discard() { l.pending = nil }

// CommitIfChanged pushes the pending actions as a transaction when there are
// any or when the selection changed. It reports whether a transaction was
// pushed.
func (l *Log) CommitIfChanged(before, after []kernel.ID) bool {
	if len(l.pending) == 0 && sameSelection(before, after) {
		return false
	}
	tx := Transaction{
		Actions:         l.pending,
		SelectionBefore: slices.Clone(before),
		SelectionAfter:  slices.Clone(after),
	}
	l.pending = nil
	l.q.Push(tx)
	l.logger.Debug("transaction committed", "actions", len(tx.Actions), "cursor", l.q.Cursor())
	if l.observer != nil {
		l.observer.Committed(tx)
	}
	return true
}

// Undo inverts the transaction at the cursor. It is a no-op when nothing
// can be undone.
func (l *Log) Undo(a Applier) (Transaction, bool) {
	tx, ok := l.q.Undo()
	if !ok {
		return Transaction{}, false
	}
	l.replay(a, tx, Backward)
	if l.observer != nil {
		l.observer.Undone(tx)
	}
	return tx, true
}

// Redo re-applies the transaction after the cursor. It is a no-op when
// nothing can be redone.
func (l *Log) Redo(a Applier) (Transaction, bool) {
	tx, ok := l.q.Redo()
	if !ok {
		return Transaction{}, false
	}
	l.replay(a, tx, Forward)
	if l.observer != nil {
		l.observer.Redone(tx)
	}
	return tx, true
}

func (l *Log) replay(a Applier, tx Transaction, dir Direction) {
	l.replaying = true
	defer func() { l.replaying = false }()
	ApplyTransaction(a, tx, dir)
}

func (l *Log) CanUndo() bool { return l.q.CanUndo() }
func (l *Log) CanRedo() bool { return l.q.CanRedo() }
func (l *Log) Len() int      { return l.q.Len() }
func (l *Log) Cursor() int   { return l.q.Cursor() }

// Clear forgets history and any pending actions.
func (l *Log) Clear() {
	l.q.Clear()
	l.pending = nil
	l.dragging = false
}

func sameSelection(a, b []kernel.ID) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
