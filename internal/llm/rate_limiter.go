package llm

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited запрос отклонён локальным лимитером.
var ErrRateLimited = errors.New("llm: rate limit exceeded")

// bucket token bucket с непрерывным пополнением.
type bucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	rate     float64 // токенов в секунду
	last     time.Time
}

func newBucket(capacity int, per time.Duration, now time.Time) *bucket {
	return &bucket{
		capacity: float64(capacity),
		tokens:   float64(capacity),
		rate:     float64(capacity) / per.Seconds(),
		last:     now,
	}
}

func (b *bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.last = now
}

// take списывает n токенов или возвращает время, через которое их станет достаточно.
func (b *bucket) take(now time.Time, n float64) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens >= n {
		b.tokens -= n
		return true, 0
	}
	missing := n - b.tokens
	return false, time.Duration(missing / b.rate * float64(time.Second))
}

func (b *bucket) consume(now time.Time, n float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	b.tokens = max(0, b.tokens-n)
}

func (b *bucket) available(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	return int(b.tokens)
}

// RateLimiter ограничивает запросы в минуту (RPM) и токены в час (TPH).
type RateLimiter struct {
	requestsPerMinute int
	tokensPerHour     int

	requests *bucket
	tokens   *bucket
	now      func() time.Time
}

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(requestsPerMinute, tokensPerHour int) *RateLimiter {
	return newRateLimiter(requestsPerMinute, tokensPerHour, time.Now)
}

func newRateLimiter(requestsPerMinute, tokensPerHour int, now func() time.Time) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if tokensPerHour <= 0 {
		tokensPerHour = 90000
	}
	t := now()
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		tokensPerHour:     tokensPerHour,
		requests:          newBucket(requestsPerMinute, time.Minute, t),
		tokens:            newBucket(tokensPerHour, time.Hour, t),
		now:               now,
	}
}

// AllowRequest проверяет, можно ли выполнить запрос
func (rl *RateLimiter) AllowRequest() error {
	if ok, wait := rl.requests.take(rl.now(), 1); !ok {
		return fmt.Errorf("%w: %d RPM, повторите через %v", ErrRateLimited, rl.requestsPerMinute, wait.Round(time.Millisecond))
	}
	return nil
}

// AllowTokens проверяет, можно ли использовать указанное количество токенов
func (rl *RateLimiter) AllowTokens(tokens int) error {
	if ok, wait := rl.tokens.take(rl.now(), float64(tokens)); !ok {
		return fmt.Errorf("%w: %d TPH, требуется %d токенов, повторите через %v",
			ErrRateLimited, rl.tokensPerHour, tokens, wait.Round(time.Second))
	}
	return nil
}

// ConsumeTokens списывает токены после успешного запроса
func (rl *RateLimiter) ConsumeTokens(tokens int) {
	rl.tokens.consume(rl.now(), float64(tokens))
}

// Stats возвращает текущий остаток запросов и токенов.
func (rl *RateLimiter) Stats() (requestsAvailable int, tokensAvailable int) {
	now := rl.now()
	return rl.requests.available(now), rl.tokens.available(now)
}
