package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/fontus/internal/cfg"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/jitter"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

const (
	releaseBase = time.Second
	releaseMax  = 5 * time.Minute
	// maxAttempts — после стольких неудачных отправок событие помечается failed.
	maxAttempts = 20

	reconnectDelay = 2 * time.Second
	waitTimeout    = 30 * time.Second
)

// OutboxWorker переносит события из outbox в Kafka.
// Пачки забираются по NOTIFY и по таймеру (на случай потерянного уведомления).
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	logger    logger.Logger
	producer  usecase.MessageProducer
	cfg       *cfg.OutboxCfg
	channel   string
	dbConnStr string

	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	cfg *cfg.OutboxCfg,
	channel string,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		logger:    logger,
		producer:  producer,
		cfg:       cfg,
		channel:   channel,
		dbConnStr: dbConnStr,
		wake:      make(chan struct{}, 1),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

// Stop останавливает воркер и ждёт завершения текущей пачки.
func (w *OutboxWorker) Stop(_ context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	w.drain(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Outbox worker stopped")
			return
		case <-ticker.C:
		case <-w.wake:
		}

		w.drain(ctx)
	}
}

// notify будит run, не блокируясь, если сигнал уже ожидает.
func (w *OutboxWorker) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	for ctx.Err() == nil {
		conn, err := w.connect(ctx)
		if err != nil {
			w.logger.Warnf("LISTEN connect failed: %v", err)
			if !sleep(ctx, jitter.Duration(reconnectDelay, jitter.DefaultJitter)) {
				return
			}
			continue
		}

		w.waitNotifications(ctx, conn)
		conn.Close(context.Background())
	}
}

func (w *OutboxWorker) connect(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, w.dbConnStr)
	if err != nil {
		return nil, e.Wrap("failed to connect for LISTEN", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{w.channel}.Sanitize()); err != nil {
		conn.Close(ctx)
		return nil, e.Wrap("failed to LISTEN", err)
	}

	w.logger.Infof("Subscribed to '%s' channel", w.channel)
	return conn, nil
}

// waitNotifications возвращает управление при потере соединения или отмене ctx.
func (w *OutboxWorker) waitNotifications(ctx context.Context, conn *pgx.Conn) {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
			return
		}

		if notif != nil && notif.Channel == w.channel {
			w.logger.Debugf("Received outbox notification")
			w.notify()
		}
	}
}

// drain обрабатывает пачки, пока outbox не опустеет.
func (w *OutboxWorker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.cfg.BatchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		w.processEvent(ctx, event)
	}

	return len(events) == w.cfg.BatchSize, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) {
	err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.ProductID, event.Payload))
	if err != nil && (jitter.IsPermanent(err) || event.Attempts >= maxAttempts) {
		w.logger.Errorf(err, "Event %s cannot be published (attempt %d), marking failed", event.EventID, event.Attempts)

		failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := w.repo.MarkAsFailed(failCtx, event.ID, err.Error()); err != nil {
			w.logger.Errorf(err, "mark outbox event %d failed", event.ID)
		}
		return
	}

	if err != nil {
		retryAfter := jitter.ExponentialBackoff(releaseBase, releaseMax, event.Attempts-1, jitter.DefaultJitter)
		w.logger.Warnf("Failed to publish event %s (attempt %d), retry in %s: %v",
			event.EventID, event.Attempts, retryAfter, err)

		// ctx может быть уже отменён, событие всё равно нужно вернуть в очередь
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := w.repo.Release(releaseCtx, event.ID, retryAfter); err != nil {
			w.logger.Errorf(err, "release outbox event %d", event.ID)
		}
		return
	}

	if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
		w.logger.Warnf("mark processed failed: %v", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}

	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"leader not available",
		"not leader for partition",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
