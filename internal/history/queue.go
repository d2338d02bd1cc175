package history

// Queue is a linear undo history. Cursor is the index of the last applied
// transaction, -1 when none has been applied.
type Queue struct {
	items  []Transaction
	cursor int
	limit  int
}

// NewQueue creates a queue keeping at most limit transactions; limit <= 0
// keeps everything.
func NewQueue(limit int) *Queue {
	return &Queue{cursor: -1, limit: limit}
}

// Push appends tx after the cursor, discarding any undone transactions.
func (q *Queue) Push(tx Transaction) {
	q.items = append(q.items[:q.cursor+1], tx)
	if q.limit > 0 && len(q.items) > q.limit {
		drop := len(q.items) - q.limit
		q.items = append(q.items[:0:0], q.items[drop:]...)
	}
	q.cursor = len(q.items) - 1
}

// Undo returns the transaction at the cursor and moves the cursor back.
func (q *Queue) Undo() (Transaction, bool) {
	if q.cursor < 0 {
		return Transaction{}, false
	}
	tx := q.items[q.cursor]
	q.cursor--
	return tx, true
}

// Redo moves the cursor forward and returns the transaction there.
func (q *Queue) Redo() (Transaction, bool) {
	if q.cursor+1 >= len(q.items) {
		return Transaction{}, false
	}
	q.cursor++
	return q.items[q.cursor], true
}

func (q *Queue) CanUndo() bool { return q.cursor >= 0 }
func (q *Queue) CanRedo() bool { return q.cursor+1 < len(q.items) }
func (q *Queue) Len() int      { return len(q.items) }
func (q *Queue) Cursor() int   { return q.cursor }

// Clear forgets every transaction.
func (q *Queue) Clear() {
	q.items = nil
	q.cursor = -1
}
