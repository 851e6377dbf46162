// Package jitter добавляет случайность в интервалы отступления (backoff),
// чтобы повторные попытки разных воркеров не совпадали по времени.
package jitter

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает продолжительность в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return d + time.Duration(rand.Float64()*jitterFactor*float64(d))
}

// DurationWithRand то же, что Duration, но с заданным генератором (детерминированно в тестах).
func DurationWithRand(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	return d + time.Duration(rng.Float64()*jitterFactor*float64(d))
}

// ExponentialBackoff вычисляет задержку base*2^attempt, ограниченную max, с джиттером.
// attempt нумеруется с нуля.
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(capped(base, max, attempt), jitterFactor)
}

func capped(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			return max
		}
	}
	return backoff
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent помечает ошибку как неповторяемую: Retry вернёт её сразу, не снимая пометку.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent сообщает, помечена ли ошибка (или одна из обёрнутых) через Permanent.
func IsPermanent(err error) bool {
	var perm *permanentError
	return errors.As(err, &perm)
}

// Retry вызывает fn до attempts раз, выдерживая экспоненциальную паузу между попытками.
// Возвращает последнюю ошибку fn или ошибку контекста.
func Retry(ctx context.Context, attempts int, base, max time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		if IsPermanent(err) {
			return err
		}

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(ExponentialBackoff(base, max, attempt, DefaultJitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return err
}
