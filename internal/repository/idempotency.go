package repository

import (
	"context"
	"fmt"
	"time"
)

// IdempotencyKeyRow mirrors a row of the idempotency_keys table.
type IdempotencyKeyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
	CreatedAt      time.Time
}

func (q *Queries) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyKeyRow, error) {
	var row IdempotencyKeyRow
	err := q.db.QueryRow(ctx, `
		SELECT idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at
		FROM idempotency_keys WHERE idempotency_key = $1`, key,
	).Scan(&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path, &row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress, &row.CreatedAt)
	return row, err
}

type ReserveIdempotencyKeyParams struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
}

// ReserveIdempotencyKey claims a key for in-flight processing. Returns false
// when another request already holds it.
func (q *Queries) ReserveIdempotencyKey(ctx context.Context, p ReserveIdempotencyKeyParams) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at)
		VALUES ($1, $2, $3, $4, 0, ''::bytea, '', TRUE, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING`,
		p.IdempotencyKey, p.RequestHash, p.Method, p.Path)
	if err != nil {
		return false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type FinalizeIdempotencyKeyParams struct {
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	IdempotencyKey string
	RequestHash    string
}

// FinalizeIdempotencyKey records the response for replay and releases the
// in-progress flag.
func (q *Queries) FinalizeIdempotencyKey(ctx context.Context, p FinalizeIdempotencyKeyParams) (IdempotencyKeyRow, error) {
	var row IdempotencyKeyRow
	err := q.db.QueryRow(ctx, `
		UPDATE idempotency_keys
		SET response_status = $1, response_body = $2, content_type = $3, in_progress = FALSE
		WHERE idempotency_key = $4 AND request_hash = $5
		RETURNING idempotency_key, request_hash, method, path, response_status, response_body, content_type, in_progress, created_at`,
		p.ResponseStatus, p.ResponseBody, p.ContentType, p.IdempotencyKey, p.RequestHash,
	).Scan(&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path, &row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress, &row.CreatedAt)
	return row, err
}
