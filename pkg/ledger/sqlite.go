package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/saturn/pkg/config"
)

// SQLiteStore persists usage records to a SQLite database. Timestamps are
// stored as Unix nanoseconds in UTC; metadata is stored as a JSON object.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at the configured path
// and ensures the schema exists.
func NewSQLiteStore(cfg *config.SQLiteConfig, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "ledger.sqlite")

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, newStorageError("open", "sqlite", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	// An unset WALMode means the default, which is on.
	walMode := cfg.WALMode == nil || *cfg.WALMode
	if walMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			db.Close()
			return nil, newStorageError("open", "sqlite", fmt.Errorf("enable WAL mode: %w", err))
		}
	}
	if cfg.BusyTimeout > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, newStorageError("open", "sqlite", fmt.Errorf("set busy timeout: %w", err))
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, newStorageError("open", "sqlite", fmt.Errorf("create schema: %w", err))
	}

	var version int
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		db.Close()
		return nil, newStorageError("open", "sqlite", fmt.Errorf("read schema version: %w", err))
	}
	if version != SchemaVersion {
		db.Close()
		return nil, newStorageError("open", "sqlite",
			fmt.Errorf("schema version mismatch: have %d, want %d", version, SchemaVersion))
	}

	logger.Info("sqlite ledger store opened",
		"path", cfg.Path,
		"wal_mode", walMode,
		"schema_version", version,
	)

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Append persists one record.
func (s *SQLiteStore) Append(ctx context.Context, record *Record) error {
	metadata := "{}"
	if len(record.Metadata) > 0 {
		data, err := json.Marshal(record.Metadata)
		if err != nil {
			return newStorageError("append", "sqlite", fmt.Errorf("marshal metadata: %w", err))
		}
		metadata = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records
			(id, timestamp, model, provider, input_tokens, output_tokens,
			 cost, owner_id, project_id, trace_id, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.UTC().UnixNano(),
		record.Model,
		record.Provider,
		record.InputTokens,
		record.OutputTokens,
		record.Cost,
		record.OwnerID,
		record.ProjectID,
		record.TraceID,
		metadata,
	)
	if err != nil {
		return newStorageError("append", "sqlite", err)
	}
	return nil
}

// Query returns all records matching the filter, ordered by timestamp
// ascending.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	where, args := buildWhere(filter)
	query := `
		SELECT id, timestamp, model, provider, input_tokens, output_tokens,
		       cost, owner_id, project_id, trace_id, metadata
		FROM usage_records` + where + `
		ORDER BY timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newStorageError("query", "sqlite", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, newStorageError("query", "sqlite", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, newStorageError("query", "sqlite", err)
	}
	return records, nil
}

// SumCost returns the total cost of records matching the filter.
func (s *SQLiteStore) SumCost(ctx context.Context, filter Filter) (float64, error) {
	where, args := buildWhere(filter)
	query := "SELECT COALESCE(SUM(cost), 0) FROM usage_records" + where

	var total float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, newStorageError("sum", "sqlite", err)
	}
	return total, nil
}

// DeleteBefore removes records with timestamps strictly before cutoff.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_records WHERE timestamp < ?",
		cutoff.UTC().UnixNano(),
	)
	if err != nil {
		return 0, newStorageError("delete", "sqlite", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, newStorageError("delete", "sqlite", err)
	}
	return int(affected), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newStorageError("close", "sqlite", err)
	}
	return nil
}

// buildWhere translates a filter into a WHERE clause and its arguments.
func buildWhere(filter Filter) (string, []any) {
	var clauses []string
	var args []any

	if !filter.Start.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Start.UTC().UnixNano())
	}
	if !filter.End.IsZero() {
		clauses = append(clauses, "timestamp < ?")
		args = append(args, filter.End.UTC().UnixNano())
	}
	if filter.Model != "" {
		clauses = append(clauses, "model = ?")
		args = append(args, filter.Model)
	}
	if filter.Provider != "" {
		clauses = append(clauses, "provider = ?")
		args = append(args, filter.Provider)
	}
	if filter.OwnerID != "" {
		clauses = append(clauses, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.ProjectID != "" {
		clauses = append(clauses, "project_id = ?")
		args = append(args, filter.ProjectID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanRecord reads one row into a Record.
func scanRecord(rows *sql.Rows) (*Record, error) {
	var (
		record   Record
		tsNanos  int64
		metadata string
	)
	err := rows.Scan(
		&record.ID,
		&tsNanos,
		&record.Model,
		&record.Provider,
		&record.InputTokens,
		&record.OutputTokens,
		&record.Cost,
		&record.OwnerID,
		&record.ProjectID,
		&record.TraceID,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	record.Timestamp = time.Unix(0, tsNanos).Local()
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &record.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for record %s: %w", record.ID, err)
		}
	}
	return &record, nil
}
