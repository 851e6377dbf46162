package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/fontus/internal/cfg"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/jitter"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

const (
	retryBase = 200 * time.Millisecond
	retryMax  = 2 * time.Second
)

type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}
}

// WriteRawMessage публикует сериализованное событие. Ключ — id продукта,
// поэтому события одного продукта попадают в одну партицию по порядку.
func (p *Producer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(req.ProductID, 10)),
		Value: req.Payload,
	}

	attempt := 0
	return jitter.Retry(ctx, max(p.cfg.MaxRetries, 1), retryBase, retryMax, func(ctx context.Context) error {
		attempt++
		err := p.writer.WriteMessages(ctx, msg)
		if err == nil {
			return nil
		}

		if !isRetryableError(err) {
			return jitter.Permanent(e.Wrap(whereami.WhereAmI(), err))
		}

		p.logger.Warnf("Temporary Kafka failure (attempt %d): %v", attempt, err)
		return e.Wrap(whereami.WhereAmI(), err)
	})
}

// EnsureTopic создаёт топик, если его нет.
func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close(_ context.Context) error {
	return p.writer.Close()
}
