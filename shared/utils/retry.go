package utils

import (
	"context"
	"time"
)

// Retry llama a fn hasta attempts veces (al menos una). Solo reintenta los
// errores que acepta retryable (nil los acepta todos) y espera delay entre
// intentos, nunca después del último. Devuelve el último error de fn, o el
// de ctx si se cancela durante una espera.
func Retry(ctx context.Context, attempts int, delay time.Duration, retryable func(error) bool, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil {
			return nil
		}
		if attempt == attempts || (retryable != nil && !retryable(err)) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}
