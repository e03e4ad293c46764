package application

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/raffle-network/raffle/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

const listenerBufferSize = 64

type listener struct {
	id string
	ch chan domain.Event
}

// listenersMap fans raffle events out to any number of subscribers.
// A slow subscriber never blocks the raffle, events it cannot keep up with
// are dropped.
type listenersMap struct {
	lock      *sync.RWMutex
	listeners map[string]*listener
}

func newListenersMap() *listenersMap {
	return &listenersMap{&sync.RWMutex{}, make(map[string]*listener)}
}

func (m *listenersMap) push() *listener {
	m.lock.Lock()
	defer m.lock.Unlock()

	l := &listener{
		id: uuid.New().String(),
		ch: make(chan domain.Event, listenerBufferSize),
	}
	m.listeners[l.id] = l
	return l
}

func (m *listenersMap) delete(id string) {
	m.lock.Lock()
	defer m.lock.Unlock()

	l, ok := m.listeners[id]
	if !ok {
		return
	}
	close(l.ch)
	delete(m.listeners, id)
}

func (m *listenersMap) broadcast(event domain.Event) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	for _, l := range m.listeners {
		select {
		case l.ch <- event:
		default:
			log.Warnf("listener %s is too slow, dropped %s event", l.id, event.GetType())
		}
	}
}

func (m *listenersMap) len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.listeners)
}

func (m *listenersMap) closeAll() {
	m.lock.Lock()
	defer m.lock.Unlock()

	for id, l := range m.listeners {
		close(l.ch)
		delete(m.listeners, id)
	}
}

func settlementReference(raffleId string, roundId uint64) string {
	return fmt.Sprintf("%s/%d", raffleId, roundId)
}
