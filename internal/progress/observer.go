package progress

// Observer receives progress events synchronously on the scraping goroutine.
// Implementations must return quickly and must not block on I/O for long.
type Observer interface {
	Observe(evt Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(evt Event)

// Observe calls f(evt).
func (f ObserverFunc) Observe(evt Event) {
	f(evt)
}

// Nop discards every event.
type Nop struct{}

// Observe implements Observer.
func (Nop) Observe(Event) {}

// Multi fans each event out to every non-nil observer in order.
type Multi []Observer

// NewMulti drops nil observers and returns Nop when none remain.
func NewMulti(observers ...Observer) Observer {
	out := make(Multi, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return Nop{}
	case 1:
		return out[0]
	default:
		return out
	}
}

// Observe implements Observer.
func (m Multi) Observe(evt Event) {
	for _, o := range m {
		o.Observe(evt)
	}
}
