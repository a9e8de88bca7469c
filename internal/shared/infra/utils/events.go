package utils

import (
	"encoding/json"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/hexaquery/shared/events"
)

// DecodeEvent decodifica el Data de un evento de integración en T. Si no
// puede, lo registra con el tipo y la clave del evento y devuelve false.
func DecodeEvent[T any](log *zap.Logger, evt sharedEvents.IntegrationEvent) (T, bool) {
	var out T
	if err := json.Unmarshal(evt.Data, &out); err != nil {
		log.Warn("Failed to unmarshal event data",
			zap.String("type", evt.Type),
			zap.String("key", evt.Key),
			zap.Error(err))
		return out, false
	}
	return out, true
}
