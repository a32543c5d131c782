package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func fastPolicy(attempts int) Policy {
	return Policy{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy(5)
	p.OnRetry = func(op string, attempt int, delay time.Duration, err error) {
		assert.Equal(t, "submit", op)
		retried = append(retried, attempt)
	}
	v, err := Do(context.Background(), "submit", p, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errTransient
		}
		return "ok", nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_FailsFastOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "status", fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, errFatal
	}, func(err error) bool { return errors.Is(err, errTransient) })
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, errFatal)
	assert.NotErrorIs(t, err, ErrExhausted)
}

func TestDo_Exhausted(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), "responses", fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, errTransient
	}, nil)
	assert.Equal(t, 3, calls)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Contains(t, err.Error(), "responses failed after 3 attempts")
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 10, InitialDelay: time.Hour}
	p.OnRetry = func(string, int, time.Duration, error) { cancel() }
	_, err := Do(ctx, "op", p, func(ctx context.Context) (int, error) { return 0, errTransient }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, time.Second, p.Delay(10))
}

func TestPolicy_JitterBounds(t *testing.T) {
	p := Policy{Jitter: 0.25}
	for i := 0; i < 200; i++ {
		d := p.jittered(time.Second)
		assert.GreaterOrEqual(t, d, 750*time.Millisecond)
		assert.LessOrEqual(t, d, 1250*time.Millisecond)
	}
}
