// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"container/heap"

	"github.com/db47h/cosim/simtime"
)

type timer struct {
	k     *Kernel
	at    simtime.Duration
	seq   uint64
	fn    func()
	index int
}

// Dispose cancels the timer if it has not fired yet.
//
func (t *timer) Dispose() {
	if t.index >= 0 {
		heap.Remove(&t.k.timers, t.index)
	}
	t.fn = nil
}

// timerQueue is a min-heap of timers ordered by due time then registration
// order.
//
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x interface{}) {
	t := x.(*timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
