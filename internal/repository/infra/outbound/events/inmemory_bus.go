package events

import (
	"context"
	"encoding/json"
	"sync"

	sharedBus "github.com/davicafu/hexaquery/shared/platform/bus"
)

// InMemoryEventBus reparte los eventos de UN topic entre sus suscriptores.
// Los eventos se entregan serializados ([]byte), igual que con Kafka. Un
// suscriptor con el buffer lleno pierde el evento.
type InMemoryEventBus struct {
	subscribers []chan interface{}
	mu          sync.RWMutex
	once        sync.Once
	closed      bool
	topic       string
}

var _ sharedBus.EventPublisher = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(topic string) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make([]chan interface{}, 0),
		topic:       topic,
	}
}

func (b *InMemoryEventBus) Topic() string { return b.topic }

// Publish serializa el evento y lo entrega sin bloquear.
func (b *InMemoryEventBus) Publish(ctx context.Context, event interface{}) error {
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, subChan := range b.subscribers {
		select {
		case subChan <- payloadBytes:
		default:
		}
	}
	return nil
}

// Subscribe devuelve un canal con buffer que recibe los eventos publicados
// a partir de ahora.
func (b *InMemoryEventBus) Subscribe(bufferSize int) <-chan interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	subChan := make(chan interface{}, bufferSize)
	if b.closed {
		close(subChan)
		return subChan
	}
	b.subscribers = append(b.subscribers, subChan)
	return subChan
}

// Close cierra todos los canales de suscripción.
func (b *InMemoryEventBus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		for _, subChan := range b.subscribers {
			close(subChan)
		}
		b.subscribers = nil
	})
}
