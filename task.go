// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package cosim

import (
	"github.com/db47h/cosim/kernel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// A Task is a handle to a coroutine spawned with Start or StartSoon.
//
type Task struct {
	s      *Simulator
	id     uuid.UUID
	name   string
	co     *coroutine
	done   bool
	err    error
	joiner *coroutine
	start  kernel.Token
}

// ID returns the unique identifier of the task.
//
func (t *Task) ID() uuid.UUID { return t.id }

// Name returns the task name.
//
func (t *Task) Name() string { return t.name }

// Done returns true once the task function has returned.
//
func (t *Task) Done() bool { return t.done }

// Err returns the error returned by the task function, if done.
//
func (t *Task) Err() error { return t.err }

// StartSoon spawns fn as a new task. The task starts running after a delta
// step, so it never preempts the remainder of the caller's current segment.
//
// A task returning an error fails the running test.
//
func (s *Simulator) StartSoon(name string, fn func() error) *Task {
	if fn == nil {
		panic(newFault(ProtocolFault, "StartSoon", "nil task function"))
	}
	if s.k == nil {
		panic(newFault(ProtocolFault, "StartSoon", "no test running"))
	}
	t := &Task{s: s, id: uuid.New(), name: name}
	t.co = s.newCoroutine("task "+name, fn)
	t.co.onDone = t.complete
	s.metrics.TaskSpawned()
	s.log.Debug().Str("task", name).Str("task_id", t.id.String()).Stringer("time", s.k.Now()).Msg("task spawned")

	// the initial delta step
	t.start = s.k.After(0, func() { s.resume(t.co) })
	return t
}

// Start is like StartSoon but suspends the caller for one delta step, so that
// the task has started when Start returns.
//
func (s *Simulator) Start(name string, fn func() error) *Task {
	t := s.StartSoon(name, fn)
	s.DeltaStep()
	return t
}

func (t *Task) complete(err error) {
	t.done = true
	t.err = err
	t.start.Dispose()
	s := t.s
	s.log.Debug().Str("task", t.name).Str("task_id", t.id.String()).Stringer("time", s.k.Now()).Err(err).Msg("task done")
	if err != nil {
		s.fail(errors.WithMessagef(err, "task %s", t.name))
	}
	if j := t.joiner; j != nil {
		t.joiner = nil
		s.resume(j)
	}
}

// Join waits for the task to complete and returns its error. It returns
// immediately, without suspending, if the task is already done. At most one
// coroutine may wait on a given task.
//
func (t *Task) Join() error {
	if t.done {
		return t.err
	}
	co := t.s.self("Join")
	switch {
	case co == t.co:
		return newFault(ProtocolFault, "Join", "task %s cannot join itself", t.name)
	case t.joiner != nil:
		return newFault(ProtocolFault, "Join", "task %s already has a joiner", t.name)
	}
	t.joiner = co
	for !t.done {
		co.park()
	}
	return t.err
}
