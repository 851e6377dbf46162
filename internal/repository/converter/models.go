package converter

import "time"

// ProductModel представляет запись таблицы products (PostgreSQL, SQLite) и значение в bucket products (Bolt).
type ProductModel struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	Version    int64     `db:"version" json:"version"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	ProductID   int64      `db:"product_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	Attempts    int        `db:"attempts"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
