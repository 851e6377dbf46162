package closer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestCloseRunsInLIFOOrder(t *testing.T) {
	c := NewCloser(0)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"db", "cache", "http"} {
		c.Add(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	assert.NilError(t, c.Close(context.Background()))
	assert.DeepEqual(t, []string{"http", "cache", "db"}, order)
}

func TestCloseCollectsErrors(t *testing.T) {
	c := NewCloser(0)
	c.Add(func(ctx context.Context) error { return errors.New("redis close failed") })
	c.Add(func(ctx context.Context) error { return nil })

	err := c.Close(context.Background())
	assert.ErrorContains(t, err, "redis close failed")
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewCloser(0)
	calls := 0
	c.Add(func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.NilError(t, c.Close(context.Background()))
	assert.NilError(t, c.Close(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestCloseForcesRemainingOnTimeout(t *testing.T) {
	c := NewCloser(100 * time.Millisecond)

	var forced bool
	var mu sync.Mutex
	c.Add(func(ctx context.Context) error {
		mu.Lock()
		forced = true
		mu.Unlock()
		return nil
	})
	block := make(chan struct{})
	defer close(block)
	var slowCalls atomic.Int32
	c.Add(func(ctx context.Context) error {
		if slowCalls.Add(1) == 1 {
			<-block
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	assert.Assert(t, err != nil)
	assert.Assert(t, strings.Contains(err.Error(), "shutdown interrupted"))

	mu.Lock()
	defer mu.Unlock()
	assert.Assert(t, forced)
}

func TestCloseNamesFailedResource(t *testing.T) {
	c := NewCloser(0)
	c.AddNamed("kafka producer", func(ctx context.Context) error { return errors.New("broker gone") })

	err := c.Close(context.Background())
	assert.ErrorContains(t, err, "kafka producer: broker gone")
}
