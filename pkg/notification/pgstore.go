package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds connection settings for the durable notification log.
type PostgresConfig struct {
	ConnectionString  string        `env:"NOTIFY_PG_CONN_URL,required"`              // ConnectionString is the connection string to the database.
	MaxOpenConns      int32         `env:"NOTIFY_PG_MAX_OPEN_CONNS" envDefault:"10"` // MaxOpenConns is the maximum number of open connections.
	MinIdleConns      int32         `env:"NOTIFY_PG_MIN_IDLE_CONNS" envDefault:"2"`  // MinIdleConns is the minimum number of idle connections kept warm.
	HealthCheckPeriod time.Duration `env:"NOTIFY_PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	RetryAttempts     int           `env:"NOTIFY_PG_RETRY_ATTEMPTS" envDefault:"3"` // RetryAttempts is how many times to retry the initial connect.
	RetryInterval     time.Duration `env:"NOTIFY_PG_RETRY_INTERVAL" envDefault:"5s"`
}

var (
	ErrFailedToParsePGConfig = errors.New("notification.errors.failed_to_parse_pg_config")
	ErrFailedToConnectPG     = errors.New("notification.errors.failed_to_connect_pg")
)

// Connect establishes the pgx pool for PostgresStorage, retrying startup
// so a restarting database does not take the engine down with it.
func Connect(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParsePGConfig, err)
	}
	poolCfg.MaxConns = cfg.MaxOpenConns
	poolCfg.MinConns = cfg.MinIdleConns
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	for i := range cfg.RetryAttempts {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
			continue
		}
		return pool, nil
	}

	return nil, ErrFailedToConnectPG
}

// PostgresStorage is the durable Storage implementation backed by a single
// notification_log table:
//
//	CREATE TABLE notification_log (
//	    id            UUID PRIMARY KEY,
//	    type          TEXT NOT NULL,
//	    channel       TEXT NOT NULL,
//	    recipient     TEXT NOT NULL,
//	    template_id   TEXT NOT NULL,
//	    template_data JSONB,
//	    status        TEXT NOT NULL,
//	    retry_count   INT NOT NULL DEFAULT 0,
//	    retry_after   TIMESTAMPTZ,
//	    message_id    TEXT,
//	    error_message TEXT,
//	    is_test       BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at    TIMESTAMPTZ NOT NULL,
//	    updated_at    TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX notification_log_retry_idx
//	    ON notification_log (retry_after) WHERE status = 'failed_retryable';
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage wraps an existing pool. The pool's lifecycle stays
// with the caller.
func NewPostgresStorage(pool *pgxpool.Pool) (*PostgresStorage, error) {
	if pool == nil {
		return nil, ErrStorageNil
	}
	return &PostgresStorage{pool: pool}, nil
}

const logColumns = `id, type, channel, recipient, template_id, template_data,
	status, retry_count, retry_after, message_id, error_message, is_test,
	created_at, updated_at`

func (s *PostgresStorage) Create(ctx context.Context, entry *LogEntry) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("%w: entry is nil", ErrInvalidMessage)
	}

	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}

	data, err := json.Marshal(entry.TemplateData)
	if err != nil {
		return "", fmt.Errorf("marshal template data: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO notification_log
			(id, type, channel, recipient, template_id, template_data,
			 status, retry_count, is_test, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, now(), now())`,
		id, entry.Type, string(entry.Channel), entry.Recipient,
		entry.TemplateID, data, string(StatusPending), entry.IsTest,
	)
	if err != nil {
		return "", fmt.Errorf("insert log entry: %w", err)
	}

	return id, nil
}

func (s *PostgresStorage) Update(ctx context.Context, id string, upd Update) error {
	sets := []string{"updated_at = now()"}
	args := []any{id}

	appendSet := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Status != nil {
		appendSet("status", string(*upd.Status))
	}
	if upd.RetryCount != nil {
		appendSet("retry_count", *upd.RetryCount)
	}
	if upd.RetryAfter != nil {
		appendSet("retry_after", *upd.RetryAfter)
	}
	if upd.MessageID != nil {
		appendSet("message_id", *upd.MessageID)
	}
	if upd.ErrorMessage != nil {
		appendSet("error_message", *upd.ErrorMessage)
	}

	query := "UPDATE notification_log SET " + strings.Join(sets, ", ") + " WHERE id = $1"
	if upd.Status != nil {
		// Terminal states are immutable; the guard lives in the statement
		// so a racing writer cannot resurrect a finished entry.
		query += " AND (status = $" + fmt.Sprint(len(args)+1) + " OR status NOT IN ('sent', 'failed_permanent', 'skipped'))"
		args = append(args, string(*upd.Status))
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update log entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or it is terminal; disambiguate for callers.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: entry %s", ErrTerminalState, id)
	}

	return nil
}

func (s *PostgresStorage) Get(ctx context.Context, id string) (*LogEntry, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+logColumns+" FROM notification_log WHERE id = $1", id)
	entry, err := scanLogEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *PostgresStorage) Query(ctx context.Context, f Filter) ([]LogEntry, error) {
	var conds []string
	var args []any

	appendCond := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.Status != nil {
		appendCond("status = $%d", string(*f.Status))
	}
	if f.Channel != nil {
		appendCond("channel = $%d", string(*f.Channel))
	}
	if f.Type != "" {
		appendCond("type = $%d", f.Type)
	}
	if f.From != nil {
		appendCond("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		appendCond("created_at <= $%d", *f.To)
	}
	if f.IsTest != nil {
		appendCond("is_test = $%d", *f.IsTest)
	}

	query := "SELECT " + logColumns + " FROM notification_log"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// ClaimRetryable flips due rows back to pending inside a single UPDATE.
// FOR UPDATE SKIP LOCKED makes concurrent sweeps partition the due set
// instead of double-processing it.
func (s *PostgresStorage) ClaimRetryable(ctx context.Context, now time.Time, maxRetries, limit int) ([]LogEntry, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE notification_log SET status = $1, updated_at = now()
		WHERE id IN (
			SELECT id FROM notification_log
			WHERE status = $2 AND retry_after <= $3 AND retry_count < $4
			ORDER BY retry_after
			LIMIT $5
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+logColumns,
		string(StatusPending), string(StatusFailedRetryable), now, maxRetries, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim retryable entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanLogEntry(row pgx.Row) (*LogEntry, error) {
	var (
		entry   LogEntry
		channel string
		status  string
		data    []byte
		msgID   *string
		errMsg  *string
		retryAt *time.Time
	)

	err := row.Scan(
		&entry.ID, &entry.Type, &channel, &entry.Recipient, &entry.TemplateID,
		&data, &status, &entry.RetryCount, &retryAt, &msgID, &errMsg,
		&entry.IsTest, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Channel = Channel(channel)
	entry.Status = Status(status)
	entry.RetryAfter = retryAt
	if msgID != nil {
		entry.MessageID = *msgID
	}
	if errMsg != nil {
		entry.ErrorMessage = *errMsg
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entry.TemplateData); err != nil {
			return nil, fmt.Errorf("unmarshal template data: %w", err)
		}
	}

	return &entry, nil
}
