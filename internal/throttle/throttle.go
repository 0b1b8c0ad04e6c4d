// Package throttle はクライアント単位のログイン失敗回数制限を提供します。
package throttle

import (
	"context"
	"sync"
	"time"
)

// Limiter はキー（通常はクライアントIP）ごとの失敗回数とロック状態を管理します。
type Limiter interface {
	// Locked はロック中であれば残り時間を返します。
	Locked(ctx context.Context, key string) (time.Duration, error)
	// Fail は失敗を記録し、ロックまでの残り回数を返します。
	Fail(ctx context.Context, key string) (int, error)
	// Reset は記録を消去します。
	Reset(ctx context.Context, key string) error
}

// Policy はロック条件です。
type Policy struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// MemoryLimiter はプロセス内のマップで状態を保持します。
type MemoryLimiter struct {
	policy   Policy
	now      func() time.Time
	lock     sync.Mutex
	attempts map[string]*attemptState
}

// NewMemoryLimiter は MemoryLimiter を作成します。
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:   policy,
		now:      time.Now,
		attempts: make(map[string]*attemptState),
	}
}

// Locked はロック中であれば残り時間を返します。
func (m *MemoryLimiter) Locked(_ context.Context, key string) (time.Duration, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.attempts[key]
	if !ok {
		return 0, nil
	}
	now := m.now()
	if now.After(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

// Fail は失敗を記録し、ロックまでの残り回数を返します。
func (m *MemoryLimiter) Fail(_ context.Context, key string) (int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	state, ok := m.attempts[key]
	if !ok || now.Sub(state.firstAttempt) > m.policy.Window {
		state = &attemptState{firstAttempt: now}
		m.attempts[key] = state
	}

	state.count++
	if state.count >= m.policy.MaxAttempts {
		state.lockedUntil = now.Add(m.policy.Lockout)
		state.count = m.policy.MaxAttempts
	}

	return remaining(m.policy.MaxAttempts, state.count), nil
}

// Reset はキーの記録を消去します。
func (m *MemoryLimiter) Reset(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.attempts, key)
	return nil
}

func remaining(limit, count int) int {
	if r := limit - count; r > 0 {
		return r
	}
	return 0
}
