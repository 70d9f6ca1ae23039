package game

// Reasons published with every change notification.
const (
	ReasonNewGame        = "new game"
	ReasonGuessSubmitted = "guess submitted"
)

// Observer is called after every state-changing engine operation.
// It runs synchronously on the caller's goroutine, so the engine state it
// reads is exactly the state produced by the change.
type Observer func(e *Engine, reason string)

type subscriber struct {
	id uint64
	fn Observer
}

// AddObserver registers o and returns a func that unregisters it.
// Observers are notified in registration order.
func (e *Engine) AddObserver(o Observer) (remove func()) {
	e.nextSub++
	id := e.nextSub
	e.subs = append(e.subs, subscriber{id: id, fn: o})
	return func() {
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// notify fans out to a snapshot of the subscriber list so an observer may
// unregister itself while being called.
func (e *Engine) notify(reason string) {
	subs := append([]subscriber(nil), e.subs...)
	for _, s := range subs {
		s.fn(e, reason)
	}
}
