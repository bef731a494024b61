package notifications

import (
	"fmt"
	"sync"
	"time"

	"github.com/PatrickWalther/unfollow-watch-go/internal/database"
)

const DefaultHistoryLimit = 50

type Repository struct {
	db *database.DB
	mu sync.RWMutex
}

type NotificationsModule struct{}

func (m *NotificationsModule) Name() string {
	return "notifications"
}

func (m *NotificationsModule) Migrations() []database.Migration {
	return []database.Migration{
		{
			Version:     1,
			Description: "Create notification_log table",
			SQL: `
				CREATE TABLE IF NOT EXISTS notification_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					created_at INTEGER NOT NULL,
					type TEXT NOT NULL,
					provider TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					login TEXT DEFAULT '',
					status TEXT NOT NULL,
					error TEXT DEFAULT ''
				);

				CREATE INDEX IF NOT EXISTS idx_notification_log_created_at ON notification_log(created_at);
			`,
		},
	}
}

func NewRepository(db *database.DB) (*Repository, error) {
	if err := db.RegisterModule(&NotificationsModule{}); err != nil {
		return nil, fmt.Errorf("failed to register notifications module: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Record(entry *LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	result, err := r.db.Exec(`
		INSERT INTO notification_log (created_at, type, provider, title, message, login, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.CreatedAt.UnixMilli(), string(entry.Type), entry.Provider, entry.Title, entry.Message,
		entry.Login, entry.Status, entry.Error)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id

	return nil
}

// History returns the newest entries first.
func (r *Repository) History(limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.Query(`
		SELECT id, created_at, type, provider, title, message, login, status, error
		FROM notification_log ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		var createdAt int64
		var typ string
		if err := rows.Scan(&e.ID, &createdAt, &typ, &e.Provider, &e.Title, &e.Message, &e.Login, &e.Status, &e.Error); err != nil {
			return nil, err
		}
		e.Type = NotificationType(typ)
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (r *Repository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notification_log`).Scan(&n)
	return n, err
}

// Prune deletes entries older than the cutoff.
func (r *Repository) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.Exec(`DELETE FROM notification_log WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
