package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dukedaW/shortlinks/internal/infrastructure/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	outboxStatusPending    = "pending"
	outboxStatusProcessing = "processing"
	outboxStatusSent       = "sent"
)

var ErrOutboxEventNotOwned = errors.New("outbox event not owned by worker")

// ClickOutboxRepository stages click events in the same database that serves
// redirects, so a recorded click survives broker outages. A worker claims
// batches under a lease and publishes them downstream.
type ClickOutboxRepository struct {
	pool *pgxpool.Pool
}

type OutboxClickEvent struct {
	ID          string
	Alias       string
	OccurredAt  time.Time
	TraceParent string
	TraceState  string
	Baggage     string
	Attempts    int
}

func NewClickOutboxRepository(p *db.Postgres) (*ClickOutboxRepository, error) {
	if p == nil || p.Pool == nil {
		return nil, errors.New("postgres pool is nil")
	}
	return &ClickOutboxRepository{pool: p.Pool}, nil
}

func (r *ClickOutboxRepository) EnqueueClick(ctx context.Context, alias string, occurredAt time.Time) error {
	now := time.Now().UTC()
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO link_click_outbox
		   (id, event_type, alias, occurred_at, traceparent, tracestate, baggage,
		    status, next_attempt_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		uuid.New(), "click.recorded", alias, occurredAt.UTC(),
		carrier.Get("traceparent"), carrier.Get("tracestate"), carrier.Get("baggage"),
		outboxStatusPending, now, now,
	)
	return err
}

// ClaimPending atomically claims up to limit events for workerID. Rows stuck
// in processing past their lease are reclaimed, so a crashed worker never
// strands an event. FOR UPDATE SKIP LOCKED keeps concurrent workers from
// contending on the same row.
func (r *ClickOutboxRepository) ClaimPending(
	ctx context.Context,
	now time.Time,
	limit int64,
	workerID string,
	lease time.Duration,
) ([]OutboxClickEvent, error) {
	if limit <= 0 {
		limit = 1
	}
	if lease <= 0 {
		lease = 30 * time.Second
	}
	workerID = strings.TrimSpace(workerID)
	if workerID == "" {
		return nil, errors.New("workerID must not be empty")
	}

	now = now.UTC()
	events := make([]OutboxClickEvent, 0, limit)
	for int64(len(events)) < limit {
		var ev OutboxClickEvent
		err := r.pool.QueryRow(ctx,
			`UPDATE link_click_outbox SET
			   status = $4,
			   attempts = attempts + 1,
			   updated_at = $1,
			   processing_owner = $2,
			   processing_expires_at = $3
			 WHERE id = (
			   SELECT id FROM link_click_outbox
			   WHERE (status = $5 AND next_attempt_at <= $1)
			      OR (status = $4 AND processing_expires_at <= $1)
			   ORDER BY next_attempt_at
			   LIMIT 1
			   FOR UPDATE SKIP LOCKED
			 )
			 RETURNING id, alias, occurred_at, traceparent, tracestate, baggage, attempts`,
			now, workerID, now.Add(lease), outboxStatusProcessing, outboxStatusPending,
		).Scan(&ev.ID, &ev.Alias, &ev.OccurredAt, &ev.TraceParent, &ev.TraceState, &ev.Baggage, &ev.Attempts)
		if errors.Is(err, pgx.ErrNoRows) {
			break
		}
		if err != nil {
			return nil, err
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		events = append(events, ev)
	}

	return events, nil
}

func (r *ClickOutboxRepository) MarkSent(ctx context.Context, id string, workerID string) error {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE link_click_outbox SET
		   status = $3, sent_at = $4, updated_at = $4
		 WHERE id = $1 AND processing_owner = $2 AND status = $5`,
		id, workerID, outboxStatusSent, now, outboxStatusProcessing,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutboxEventNotOwned
	}
	return nil
}

func (r *ClickOutboxRepository) MarkRetry(
	ctx context.Context,
	id string,
	workerID string,
	lastError string,
	nextAttemptAt time.Time,
) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE link_click_outbox SET
		   status = $3, last_error = $4, next_attempt_at = $5, updated_at = $6,
		   processing_owner = NULL, processing_expires_at = NULL
		 WHERE id = $1 AND processing_owner = $2 AND status = $7`,
		id, workerID, outboxStatusPending, lastError, nextAttemptAt.UTC(), time.Now().UTC(), outboxStatusProcessing,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOutboxEventNotOwned
	}
	return nil
}
