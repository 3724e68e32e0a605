// Package idempotency guards retried requests with a redis-backed state per key.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

func (s State) String() string {
	return string(s)
}

type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	keyPrefix           = "idempotency:"
	defaultLockDuration = time.Minute
	defaultStateTTL     = 24 * time.Hour
)

// acquireScript claims KEYS[1] with ARGV[1] for ARGV[2] ms when the key is
// free and returns "" in that case; otherwise it returns the stored value.
//
//nolint:gochecknoglobals // compiled once
var acquireScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then return v end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return ''
`)

// releaseScript deletes KEYS[1] only while it still holds the caller's claim,
// so a slow caller whose lock expired cannot free a newer claim.
//
//nolint:gochecknoglobals // compiled once
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// StateTracker stores one state per key. An in-progress claim carries an
// owner token ("in_progress:<token>"); a finished operation is kept as
// "completed" until its TTL runs out. Failed operations release the claim so
// the caller may retry.
type StateTracker struct {
	client redis.Cmdable
}

func New(client redis.Cmdable) *StateTracker {
	return &StateTracker{client: client}
}

type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func parseState(v string) (State, error) {
	switch {
	case v == "":
		return StateNone, nil
	case v == StateCompleted.String():
		return StateCompleted, nil
	case strings.HasPrefix(v, StateInProgress.String()+":"):
		return StateInProgress, nil
	default:
		return StateError, ErrInvalidState
	}
}

func (s *StateTracker) claim(ctx context.Context, key string, lock time.Duration) (State, string, error) {
	owner := StateInProgress.String() + ":" + uuid.NewString()
	v, err := acquireScript.Run(ctx, s.client, []string{keyPrefix + key}, owner, lock.Milliseconds()).Text()
	if err != nil {
		return StateError, "", err
	}
	state, err := parseState(v)
	return state, owner, err
}

// Acquire claims key for lockDuration. StateNone means the caller now owns it.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	state, _, err := s.claim(ctx, key, lockDuration)
	return state, err
}

func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateCompleted.String(), ttl).Err()
}

// Release frees key whatever its current owner.
func (s *StateTracker) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Exec runs fn at most once per key within the state TTL.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, owner, err := s.claim(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}
	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	bg := context.WithoutCancel(ctx)
	if err := fn(ctx); err != nil {
		if relErr := releaseScript.Run(bg, s.client, []string{keyPrefix + key}, owner).Err(); relErr != nil {
			return errors.Join(err, relErr)
		}
		return err
	}

	return s.MarkCompleted(bg, key, o.stateTTL)
}
