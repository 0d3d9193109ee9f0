package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanOut_CollectsAllSettledInOrder(t *testing.T) {
	inputs := []int{1, 2, 3, 4}

	results := fanOut(context.Background(), inputs, 2, time.Second,
		func(ctx context.Context, n int) (int, error) {
			if n == 3 {
				return 0, errors.New("boom")
			}
			return n * 10, nil
		})

	require.Len(t, results, 4)
	assert.Equal(t, 10, results[0].value)
	assert.Equal(t, 20, results[1].value)
	assert.Error(t, results[2].err)
	assert.Equal(t, 40, results[3].value)
}

func TestFanOut_PerCallTimeout(t *testing.T) {
	inputs := []string{"fast", "slow"}

	start := time.Now()
	results := fanOut(context.Background(), inputs, 2, 50*time.Millisecond,
		func(ctx context.Context, in string) (string, error) {
			if in == "slow" {
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(5 * time.Second):
					return "too late", nil
				}
			}
			return "ok", nil
		})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "ok", results[0].value)
	assert.ErrorIs(t, results[1].err, context.DeadlineExceeded)
}

func TestFanOut_CanceledContextSkipsUnstarted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := fanOut(ctx, []int{1, 2}, 1, time.Second,
		func(ctx context.Context, n int) (int, error) {
			return n, nil
		})

	for _, r := range results {
		assert.Error(t, r.err)
	}
}

func TestFanOut_EmptyInputs(t *testing.T) {
	results := fanOut(context.Background(), nil, 2, time.Second,
		func(ctx context.Context, n int) (int, error) { return n, nil })
	assert.Empty(t, results)
}
