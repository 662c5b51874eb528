package notif

import (
	"sync"

	"go.uber.org/zap"

	"gomessenger/internal/common"
)

// Event is one notification flowing through the manager.
type Event struct {
	Username    string
	Kind        string
	RelatedUser string
}

// Observer receives every event. Observer failures are logged and never
// propagate to the caller.
type Observer interface {
	Name() string
	Update(event Event) error
}

// Manager fans notification events out to its observers from a fixed worker
// pool. CreateNotification is fire-and-forget: when the buffer is full the
// event is dropped (and logged) rather than blocking a routing path.
type Manager struct {
	observers map[string]Observer
	events    chan Event
	log       *zap.Logger

	mu     sync.RWMutex
	wg     sync.WaitGroup
	closed chan struct{}
	once   sync.Once
}

var _ common.NotificationSink = (*Manager)(nil)

func NewManager(workers, bufferSize int, log *zap.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	m := &Manager{
		observers: make(map[string]Observer),
		events:    make(chan Event, bufferSize),
		log:       log,
		closed:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.processEvents()
	}
	return m
}

func (m *Manager) Subscribe(observer Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers[observer.Name()] = observer
}

// CreateNotification implements common.NotificationSink. The events channel
// is never closed, so a send racing Close cannot panic; after Close the event
// is discarded.
func (m *Manager) CreateNotification(username, kind, relatedUser string) {
	event := Event{Username: username, Kind: kind, RelatedUser: relatedUser}
	select {
	case <-m.closed:
		return
	default:
	}
	select {
	case m.events <- event:
	case <-m.closed:
	default:
		m.log.Warn("notification buffer full, dropping event",
			zap.String("user", username), zap.String("kind", kind))
	}
}

// Close stops the workers after draining queued events.
func (m *Manager) Close() {
	m.once.Do(func() {
		close(m.closed)
	})
	m.wg.Wait()
}

func (m *Manager) processEvents() {
	defer m.wg.Done()
	for {
		select {
		case event := <-m.events:
			m.dispatch(event)
		case <-m.closed:
			for {
				select {
				case event := <-m.events:
					m.dispatch(event)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) dispatch(event Event) {
	m.mu.RLock()
	observers := make([]Observer, 0, len(m.observers))
	for _, o := range m.observers {
		observers = append(observers, o)
	}
	m.mu.RUnlock()

	for _, o := range observers {
		if err := o.Update(event); err != nil {
			m.log.Warn("notification observer failed",
				zap.String("observer", o.Name()),
				zap.String("user", event.Username),
				zap.Error(err))
		}
	}
}
