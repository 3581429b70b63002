package loader

// Event is a load lifecycle notification.
type Event string

const (
	EventSceneCleared Event = "SceneCleared"
	EventSceneLoading Event = "SceneLoading"
	EventSceneLoaded  Event = "SceneLoaded"
	EventParseError   Event = "ParseError"
)

// Observer receives load notifications. Calls happen on the goroutine that
// drives Tick.
type Observer interface {
	OnLoaderEvent(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// OnLoaderEvent calls f(ev).
func (f ObserverFunc) OnLoaderEvent(ev Event) { f(ev) }

// AddObserver registers o for all following notifications.
func (l *Loader) AddObserver(o Observer) {
	l.observers = append(l.observers, o)
}

func (l *Loader) notify(ev Event) {
	for _, o := range l.observers {
		o.OnLoaderEvent(ev)
	}
}
