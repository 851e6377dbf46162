package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/fontus/internal/cfg"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/jitter"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/segmentio/kafka-go"
	"gotest.tools/v3/assert"
)

type fakeOutbox struct {
	mu        sync.Mutex
	pending   []*usecase.OutboxEvent
	processed []int64
	released  map[int64]time.Duration
	failed    map[int64]string
}

func (f *fakeOutbox) Create(_ context.Context, ev *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = int64(len(f.pending) + 1)
	f.pending = append(f.pending, ev)
	return ev, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(limit, len(f.pending))
	batch := f.pending[:n]
	f.pending = f.pending[n:]
	for _, ev := range batch {
		ev.Status = usecase.Processing
		ev.Attempts++
	}
	return batch, nil
}

func (f *fakeOutbox) MarkAsProcessed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutbox) Release(_ context.Context, id int64, retryAfter time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released == nil {
		f.released = map[int64]time.Duration{}
	}
	f.released[id] = retryAfter
	return nil
}

func (f *fakeOutbox) MarkAsFailed(_ context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = map[int64]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeProducer struct {
	mu     sync.Mutex
	failOn map[int64]error
	sent   []int64
}

func (f *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[req.ProductID]; err != nil {
		return err
	}
	f.sent = append(f.sent, req.ProductID)
	return nil
}

func newWorker(repo *fakeOutbox, producer *fakeProducer, batch int) *OutboxWorker {
	return NewOutboxWorker(repo, logger.NewNop(), producer,
		&cfg.OutboxCfg{BatchSize: batch, PollInterval: time.Hour}, "outbox_pending", "")
}

func TestDrainPublishesAllBatches(t *testing.T) {
	repo := &fakeOutbox{}
	for i := 1; i <= 5; i++ {
		_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{ProductID: int64(i), Status: usecase.Pending})
	}
	producer := &fakeProducer{}

	newWorker(repo, producer, 2).drain(context.Background())

	assert.DeepEqual(t, []int64{1, 2, 3, 4, 5}, producer.sent)
	assert.DeepEqual(t, []int64{1, 2, 3, 4, 5}, repo.processed)
	assert.Equal(t, 0, len(repo.released))
}

func TestFailedEventIsReleased(t *testing.T) {
	repo := &fakeOutbox{}
	_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{EventID: "a", ProductID: 1})
	_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{EventID: "b", ProductID: 2})
	producer := &fakeProducer{failOn: map[int64]error{2: errors.New("broker not available")}}

	newWorker(repo, producer, 10).drain(context.Background())

	assert.DeepEqual(t, []int64{1}, repo.processed)
	retryAfter, ok := repo.released[2]
	assert.Assert(t, ok)
	assert.Assert(t, retryAfter >= releaseBase)
	assert.Assert(t, retryAfter <= releaseBase+releaseBase/2)
}

func TestPermanentFailureIsNotRetried(t *testing.T) {
	repo := &fakeOutbox{}
	_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{EventID: "a", ProductID: 1})
	producer := &fakeProducer{failOn: map[int64]error{
		1: jitter.Permanent(fmt.Errorf("write: %w", kafka.MessageSizeTooLarge)),
	}}

	newWorker(repo, producer, 10).drain(context.Background())

	assert.Equal(t, 0, len(repo.released))
	assert.Equal(t, 0, len(repo.processed))
	reason, ok := repo.failed[1]
	assert.Assert(t, ok)
	assert.Assert(t, strings.Contains(reason, "Message Size Too Large"), reason)
}

func TestEventFailsAfterMaxAttempts(t *testing.T) {
	repo := &fakeOutbox{}
	_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{EventID: "a", ProductID: 1, Attempts: maxAttempts - 2})
	_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{EventID: "b", ProductID: 2, Attempts: maxAttempts - 1})
	producer := &fakeProducer{failOn: map[int64]error{
		1: errors.New("broker not available"),
		2: errors.New("broker not available"),
	}}

	newWorker(repo, producer, 10).drain(context.Background())

	_, released := repo.released[1]
	assert.Assert(t, released)
	_, failed := repo.failed[2]
	assert.Assert(t, failed)
	_, released = repo.released[2]
	assert.Assert(t, !released)
}

func TestStartAndStop(t *testing.T) {
	repo := &fakeOutbox{}
	_, _ = repo.Create(context.Background(), &usecase.OutboxEvent{ProductID: 1})
	producer := &fakeProducer{}

	w := newWorker(repo, producer, 10)
	// без соединения с PostgreSQL LISTEN переподключается, пока не отменят ctx
	w.dbConnStr = "host=127.0.0.1 port=1 connect_timeout=1"
	w.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		producer.mu.Lock()
		sent := len(producer.sent)
		producer.mu.Unlock()
		if sent == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	assert.NilError(t, w.Stop(context.Background()))
	assert.DeepEqual(t, []int64{1}, producer.sent)
}

func TestIsRetryableError(t *testing.T) {
	assert.Assert(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.Assert(t, isRetryableError(fmt.Errorf("write: %w", kafka.LeaderNotAvailable)))
	assert.Assert(t, !isRetryableError(kafka.MessageSizeTooLarge))
	assert.Assert(t, !isRetryableError(errors.New("invalid payload")))
	assert.Assert(t, !isRetryableError(nil))
}
