package errors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failNTimes returns a func that fails n times, then succeeds, and a
// counter for how often it ran.
func failNTimes(n int, err error) (func() error, *int) {
	attempts := new(int)
	return func() error {
		*attempts++
		if *attempts <= n {
			return err
		}
		return nil
	}, attempts
}

// fastRetry is DefaultRetryConfig with delays short enough for tests.
func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialDelay = 10 * time.Millisecond
	cfg.MaxDelay = 100 * time.Millisecond
	return cfg
}

func TestRetry_TransientErrorEventuallySucceeds(t *testing.T) {
	fn, attempts := failNTimes(2, errors.New("transient error"))

	err := Retry(context.Background(), fastRetry(), fn)

	assert.NoError(t, err)
	assert.Equal(t, 3, *attempts)
}

func TestRetry_ExhaustsBudgetAndWrapsError(t *testing.T) {
	fn, attempts := failNTimes(99, errors.New("persistent error"))

	cfg := fastRetry()
	cfg.MaxRetries = 2
	err := Retry(context.Background(), cfg, fn)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, *attempts, "initial attempt plus two retries")
}

func TestRetry_NonRetryableErrorStopsImmediately(t *testing.T) {
	permanent := New(ErrCodeUpstreamStatus, "code host returned HTTP 422", nil)
	fn, attempts := failNTimes(99, permanent)

	err := Retry(context.Background(), fastRetry(), fn)

	assert.Equal(t, 1, *attempts)
	assert.ErrorIs(t, err, permanent)
	assert.NotContains(t, err.Error(), "retries")
}

func TestRetry_RetryableStructuredErrorKeepsRetrying(t *testing.T) {
	fn, attempts := failNTimes(2, New(ErrCodeNetworkTimeout, "request timed out", nil))

	err := Retry(context.Background(), fastRetry(), fn)

	assert.NoError(t, err)
	assert.Equal(t, 3, *attempts)
}

func TestRetry_ContextCancelAbortsBackoffWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	cfg := fastRetry()
	cfg.InitialDelay = 5 * time.Second
	cfg.MaxDelay = 5 * time.Second

	start := time.Now()
	err := Retry(ctx, cfg, func() error { return errors.New("transient") })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "should not sit out the full backoff")
}

func TestRetry_ContextDeadlineStopsRetries(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	cfg := fastRetry()
	cfg.MaxRetries = 10
	cfg.InitialDelay = 40 * time.Millisecond
	err := Retry(ctx, cfg, func() error { return errors.New("transient") })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetry_BackoffGrowsByMultiplier(t *testing.T) {
	var stamps []time.Time
	fn := func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errors.New("transient")
		}
		return nil
	}

	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
	require.NoError(t, Retry(context.Background(), cfg, fn))
	require.Len(t, stamps, 4)

	// 20ms, 40ms, 80ms with generous timing slack.
	assert.InDelta(t, 20, stamps[1].Sub(stamps[0]).Milliseconds(), 15)
	assert.InDelta(t, 40, stamps[2].Sub(stamps[1]).Milliseconds(), 20)
	assert.InDelta(t, 80, stamps[3].Sub(stamps[2]).Milliseconds(), 40)
}

func TestRetry_BackoffCappedAtMaxDelay(t *testing.T) {
	var stamps []time.Time
	fn := func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 5 {
			return errors.New("transient")
		}
		return nil
	}

	cfg := RetryConfig{
		MaxRetries:   10,
		InitialDelay: 20 * time.Millisecond,
		MaxDelay:     30 * time.Millisecond,
		Multiplier:   2.0,
	}
	require.NoError(t, Retry(context.Background(), cfg, fn))

	for i := 2; i < len(stamps); i++ {
		assert.LessOrEqual(t, stamps[i].Sub(stamps[i-1]).Milliseconds(), int64(50))
	}
}

func TestRetry_JitterKeepsDelayInRange(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}

	for i := 0; i < 3; i++ {
		var stamps []time.Time
		fn := func() error {
			stamps = append(stamps, time.Now())
			if len(stamps) < 2 {
				return errors.New("transient")
			}
			return nil
		}
		require.NoError(t, Retry(context.Background(), cfg, fn))
		require.Len(t, stamps, 2)

		// Jittered first delay stays within 50%..100% of InitialDelay.
		d := stamps[1].Sub(stamps[0]).Milliseconds()
		assert.GreaterOrEqual(t, d, int64(25))
		assert.LessOrEqual(t, d, int64(100))
	}
}

func TestRetry_ImmediateSuccessSkipsBackoff(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}

	start := time.Now()
	err := Retry(context.Background(), cfg, func() error { return nil })

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRetry_Concurrent(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:   3,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn, _ := failNTimes(1, errors.New("transient"))
			errs <- Retry(context.Background(), cfg, fn)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestRetryWithResult_ReturnsValueOnSuccess(t *testing.T) {
	attempts := 0
	result, err := RetryWithResult(context.Background(), fastRetry(), func() (int, error) {
		attempts++
		if attempts < 2 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestRetryWithResult_ZeroValueOnFailure(t *testing.T) {
	cfg := fastRetry()
	cfg.MaxRetries = 1
	result, err := RetryWithResult(context.Background(), cfg, func() (string, error) {
		return "partial", errors.New("transient")
	})

	assert.Error(t, err)
	assert.Empty(t, result)
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 16*time.Second, cfg.MaxDelay)
	assert.Equal(t, 2.0, cfg.Multiplier)
}
