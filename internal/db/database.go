package db

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

type Room struct {
	ID          string
	CodeContent string
	Language    string
	ActiveUsers int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(dbPath string) (*Database, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	log.Info().Str("module", "db").Str("path", dbPath).Msg("database initialized")
	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		code_content TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT 'python',
		active_users INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_created_at ON rooms(created_at DESC);
	`

	_, err := db.Exec(schema)
	return err
}

func (d *Database) Close() error {
	return d.db.Close()
}

// CreateRoom inserts a new room seeded with the starter template for the
// requested language and returns it.
func (d *Database) CreateRoom(language string) (*Room, error) {
	if language == "" {
		language = "python"
	}

	id := uuid.NewString()
	_, err := d.db.Exec(
		"INSERT INTO rooms (id, code_content, language, active_users) VALUES (?, ?, ?, 0)",
		id, StarterCode(language), language,
	)
	if err != nil {
		return nil, err
	}
	return d.GetRoom(id)
}

// GetRoom returns the room or nil if it does not exist.
func (d *Database) GetRoom(id string) (*Room, error) {
	row := d.db.QueryRow(
		"SELECT id, code_content, language, active_users, created_at, updated_at FROM rooms WHERE id = ?",
		id,
	)

	var room Room
	err := row.Scan(&room.ID, &room.CodeContent, &room.Language, &room.ActiveUsers, &room.CreatedAt, &room.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms returns rooms newest-first.
func (d *Database) ListRooms(limit, offset int) ([]Room, error) {
	rows, err := d.db.Query(
		"SELECT id, code_content, language, active_users, created_at, updated_at FROM rooms ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.CodeContent, &room.Language, &room.ActiveUsers, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (d *Database) UpdateRoomCode(id, code string) error {
	_, err := d.db.Exec(
		"UPDATE rooms SET code_content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		code, id,
	)
	return err
}

func (d *Database) UpdateRoomLanguage(id, language string) error {
	_, err := d.db.Exec(
		"UPDATE rooms SET language = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		language, id,
	)
	return err
}

// UpdateActiveUsers applies a delta to the room's active-user counter,
// clamped at zero.
func (d *Database) UpdateActiveUsers(id string, delta int) error {
	_, err := d.db.Exec(
		"UPDATE rooms SET active_users = MAX(0, active_users + ?), updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		delta, id,
	)
	return err
}

func (d *Database) DeleteRoom(id string) error {
	_, err := d.db.Exec("DELETE FROM rooms WHERE id = ?", id)
	return err
}

// Stats

func (d *Database) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var roomCount int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM rooms").Scan(&roomCount); err != nil {
		return nil, err
	}
	stats["room_count"] = roomCount

	var activeUsers int
	if err := d.db.QueryRow("SELECT COALESCE(SUM(active_users), 0) FROM rooms").Scan(&activeUsers); err != nil {
		return nil, err
	}
	stats["active_users"] = activeUsers

	return stats, nil
}
