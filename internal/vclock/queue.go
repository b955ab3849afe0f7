package vclock

// entry is a scheduled callback. seq breaks ties between entries due at the
// same tick so they fire in insertion order.
type entry struct {
	id    TimerID
	dueAt int64
	seq   uint64
	cb    func()
	index int
}

// timerQueue is a min-heap ordered by (dueAt, seq). It implements
// container/heap.Interface.
type timerQueue []*entry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].dueAt != q[j].dueAt {
		return q[i].dueAt < q[j].dueAt
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// peek returns the earliest entry without removing it.
func (q timerQueue) peek() *entry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
