package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"lianbo/internal/domain"
	"lianbo/internal/ports"
)

// ErrNotFound is returned by lookups that miss.
var ErrNotFound = errors.New("storage: record not found")

// SQLiteRepository persists scraped news records into a local SQLite file.
// The link column is unique: re-scraping a link replaces the prior row
// wholesale. Each write is its own transaction.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.NewsStore = (*SQLiteRepository)(nil)

const recordColumns = "id, date, title, link, item_number, total_items, content, created_at, updated_at"

// Open connects to the SQLite file at path and ensures schema and indexes
// exist.
func Open(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS news_broadcasts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		title TEXT NOT NULL,
		link TEXT NOT NULL UNIQUE,
		item_number TEXT NOT NULL,
		total_items INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_date ON news_broadcasts(date);
	CREATE INDEX IF NOT EXISTS idx_title ON news_broadcasts(title);
	CREATE INDEX IF NOT EXISTS idx_link ON news_broadcasts(link);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Upsert inserts the record, replacing any existing row with the same link.
// The replacement refreshes created_at/updated_at via the column defaults.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec domain.NewsRecord) error {
	query, args, err := sq.
		Insert("news_broadcasts").
		Options("OR REPLACE").
		Columns("date", "title", "link", "item_number", "total_items", "content").
		Values(rec.Date, rec.Title, rec.Link, rec.ItemNumber, rec.TotalItems, rec.Content).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// HasDay reports whether at least one record exists for the date. This is the
// coarse day-completeness gate the orchestrator skips on.
func (r *SQLiteRepository) HasDay(ctx context.Context, date string) (bool, error) {
	query, args, err := sq.
		Select("COUNT(*)").
		From("news_broadcasts").
		Where(sq.Eq{"date": date}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build count: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count date records: %w", err)
	}
	return count > 0, nil
}

// ListByDate fetches all records for a date ordered by the numeric numerator
// of item_number.
func (r *SQLiteRepository) ListByDate(ctx context.Context, date string) ([]domain.NewsRecord, error) {
	query, args, err := sq.
		Select(recordColumns).
		From("news_broadcasts").
		Where(sq.Eq{"date": date}).
		OrderBy("CAST(substr(item_number, 1, instr(item_number, '/') - 1) AS INTEGER) ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query date records: %w", err)
	}
	defer rows.Close()

	var records []domain.NewsRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// GetByID fetches one record by its surrogate key.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (domain.NewsRecord, error) {
	query, args, err := sq.
		Select(recordColumns).
		From("news_broadcasts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.NewsRecord{}, fmt.Errorf("build get query: %w", err)
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewsRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.NewsRecord{}, fmt.Errorf("query record: %w", err)
	}

	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.NewsRecord, error) {
	var rec domain.NewsRecord
	err := row.Scan(
		&rec.ID, &rec.Date, &rec.Title, &rec.Link,
		&rec.ItemNumber, &rec.TotalItems, &rec.Content,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
