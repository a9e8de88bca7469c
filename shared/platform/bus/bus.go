package bus

import "context"

// Keyer lo implementan los eventos que fijan su clave de partición. Los
// cambios de un mismo recurso comparten clave y así conservan el orden.
type Keyer interface {
	PartitionKey() string
}

// EventPublisher entrega un evento al bus. Cada adaptador decide cómo lo
// serializa y a qué topic va.
type EventPublisher interface {
	Publish(ctx context.Context, event interface{}) error
}

// PublisherFunc adapta una función a EventPublisher.
type PublisherFunc func(ctx context.Context, event interface{}) error

func (f PublisherFunc) Publish(ctx context.Context, event interface{}) error {
	return f(ctx, event)
}

