package query

import (
	"sync"
)

// Future is a statement execution that starts on first use.
//
// Await, Then, Catch and Finally each start the execution if it has not
// started yet. The Executor is called at most once; every waiter observes
// the same result.
type Future struct {
	run   func() ([]Row, error)
	start sync.Once
	done  chan struct{}

	mu        sync.Mutex
	rows      []Row
	err       error
	finished  bool
	callbacks []func()
}

func newFuture(run func() ([]Row, error)) *Future {
	return &Future{run: run, done: make(chan struct{})}
}

func (f *Future) launch() {
	f.start.Do(func() {
		go func() {
			rows, err := f.run()

			f.mu.Lock()
			f.rows, f.err = rows, err
			f.finished = true
			callbacks := f.callbacks
			f.callbacks = nil
			f.mu.Unlock()

			close(f.done)
			for _, cb := range callbacks {
				cb()
			}
		}()
	})
}

// Done starts the execution and returns a channel closed on completion.
func (f *Future) Done() <-chan struct{} {
	f.launch()
	return f.done
}

// Await starts the execution if needed and blocks until it completes.
func (f *Future) Await() ([]Row, error) {
	<-f.Done()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, f.err
}

// Then registers fn to run with the rows when the execution succeeds.
func (f *Future) Then(fn func([]Row)) *Future {
	return f.on(func() {
		if f.err == nil {
			fn(f.rows)
		}
	})
}

// Catch registers fn to run with the error when the execution fails.
func (f *Future) Catch(fn func(error)) *Future {
	return f.on(func() {
		if f.err != nil {
			fn(f.err)
		}
	})
}

// Finally registers fn to run when the execution completes either way.
func (f *Future) Finally(fn func()) *Future {
	return f.on(fn)
}

// on queues cb for completion, or runs it now if the result is already in.
func (f *Future) on(cb func()) *Future {
	f.mu.Lock()
	if f.finished {
		f.mu.Unlock()
		cb()
		return f
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()

	f.launch()
	return f
}
