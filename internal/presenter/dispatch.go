package presenter

import (
	"log/slog"
	"sync"
)

// Dispatcher runs fn on the context the sink expects. All state-changed
// notifications and result applications go through it.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatchFunc) Dispatch(fn func()) { f(fn) }

// Inline runs fn on the calling goroutine.
var Inline = DispatchFunc(func(fn func()) { fn() })

// Loop is a Dispatcher that runs tasks one at a time, in order, on a single
// goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
	log   *slog.Logger
}

// NewLoop starts a Loop. Stop it with Close.
func NewLoop(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	l := &Loop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
		log:   log,
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case fn := <-l.tasks:
			l.exec(fn)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("dispatched task panicked", "recover", r)
		}
	}()
	fn()
}

// Dispatch enqueues fn. After Close it is dropped.
func (l *Loop) Dispatch(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Close stops the loop. Queued tasks that have not started are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}
