package pgdb

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/fontus/internal/repository/converter"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// NotifyChannel — канал LISTEN/NOTIFY, в который пишется сигнал о новом событии.
const NotifyChannel = "outbox_pending"

// stuckAfter — через сколько событие в processing считается брошенным упавшим воркером.
const stuckAfter = 5 * time.Minute

type OutboxEventRepo struct {
	pool *pgxpool.Pool
	conv converter.OutboxEventConverter
}

func NewOutboxEventRepo(pool *pgxpool.Pool, conv converter.OutboxEventConverter) *OutboxEventRepo {
	return &OutboxEventRepo{
		pool: pool,
		conv: conv,
	}
}

// Create пишет событие в транзакции изменения продукта и уведомляет воркер.
func (o *OutboxEventRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	conn := tr.PgxConn(ctx, o.pool)

	model := o.conv.ToModel(event)
	query := `
		INSERT INTO outbox_events (
			event_id,
			event_type,
			product_id,
			payload,
			status,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	if err := conn.QueryRow(ctx, query,
		model.EventID,
		model.EventType,
		model.ProductID,
		model.Payload,
		model.Status,
		model.CreatedAt,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		if postgresDuplicate(err) {
			return nil, fmt.Errorf("%s: event with id %s already exists", whereami.WhereAmI(), event.EventID)
		}

		return nil, fmt.Errorf("%s: failed to insert event: %w", whereami.WhereAmI(), err)
	}

	// NOTIFY доставляется слушателям только после коммита транзакции.
	if _, err := conn.Exec(ctx, "SELECT pg_notify($1, '')", NotifyChannel); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(model), nil
}

// GetAndMarkAsProcessing захватывает пачку готовых к отправке событий.
// Параллельные воркеры не получают одни и те же строки благодаря SKIP LOCKED.
func (o *OutboxEventRepo) GetAndMarkAsProcessing(ctx context.Context, limit int) (events []*usecase.OutboxEvent, err error) {
	tx, err := o.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", whereami.WhereAmI(), err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	query := `
		UPDATE outbox_events
		SET status = $1, processing_started_at = now(), attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM outbox_events
			WHERE (status = $2 AND next_attempt_at <= now())
			   OR (status = $1 AND processing_started_at < now() - make_interval(secs => $4))
			ORDER BY id
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_id, event_type, product_id, payload, status, attempts, created_at, processed_at
	`

	rows, err := tx.Query(ctx, query, usecase.Processing, usecase.Pending, limit, stuckAfter.Seconds())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to query pending events: %w", whereami.WhereAmI(), err)
	}

	models, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[converter.OutboxEventModel])
	if err != nil {
		return nil, fmt.Errorf("%s: failed to scan events: %w", whereami.WhereAmI(), err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", whereami.WhereAmI(), err)
	}

	return o.conv.ToArrEntity(models), nil
}

func (o *OutboxEventRepo) MarkAsProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = NOW()
		WHERE id = $2 AND status = $3
	`

	// 0 затронутых строк: событие уже обработано другим воркером
	if _, err := o.pool.Exec(ctx, query, usecase.Processed, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as processed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// Release возвращает событие в очередь после неудачной отправки.
func (o *OutboxEventRepo) Release(ctx context.Context, id int64, retryAfter time.Duration) error {
	query := `
		UPDATE outbox_events
		SET status = $1, next_attempt_at = now() + make_interval(secs => $2), processing_started_at = NULL
		WHERE id = $3 AND status = $4
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Pending, retryAfter.Seconds(), id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to release event %d: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}

// MarkAsFailed снимает событие с отправки и сохраняет причину.
func (o *OutboxEventRepo) MarkAsFailed(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, last_error = $2, processing_started_at = NULL
		WHERE id = $3 AND status = $4
	`

	if _, err := o.pool.Exec(ctx, query, usecase.Failed, reason, id, usecase.Processing); err != nil {
		return fmt.Errorf("%s: failed to mark event %d as failed: %w", whereami.WhereAmI(), id, err)
	}

	return nil
}
