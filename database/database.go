package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tenchan000517/zeroone-support-sub001/models"
	"github.com/tenchan000517/zeroone-support-sub001/utils"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
	"go.uber.org/zap"
)

// DetectionDB stores the history of amplified announcements.
type DetectionDB struct {
	db *sql.DB
}

// InitDB initializes the database connection. It takes the database path as input.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open the SQLite database. It will be created if it doesn't exist.
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	utils.Logger().Info("Successfully connected to the database", zap.String("path", dbPath))
	return db, nil
}

// NewDetectionDB opens the database at dbPath and ensures the detections table exists.
func NewDetectionDB(dbPath string) (*DetectionDB, error) {
	db, err := InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	if err := createDetectionsTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create detections table: %w", err)
	}
	return &DetectionDB{db: db}, nil
}

// createDetectionsTable creates the 'detections' table if it doesn't exist.
func createDetectionsTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS detections (
        message_id TEXT PRIMARY KEY,
        guild_id TEXT,
        channel_id TEXT,
        author_id TEXT NOT NULL,
        author_name TEXT,
        structure_score INTEGER,
        content_score INTEGER,
        escalated INTEGER DEFAULT 0,
        sent INTEGER DEFAULT 0,
        timestamp INTEGER NOT NULL
    );`

	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute table creation query: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_detections_timestamp ON detections(timestamp);",
		"CREATE INDEX IF NOT EXISTS idx_detections_author ON detections(author_id, timestamp);",
	}

	for _, indexQuery := range indexes {
		if _, err := db.Exec(indexQuery); err != nil {
			utils.Logger().Warn("Failed to create index", zap.Error(err))
		}
	}

	return nil
}

// InsertDetection saves a detection, replacing any earlier row for the same message.
func (d *DetectionDB) InsertDetection(rec models.Detection) error {
	query := `
    INSERT OR REPLACE INTO detections (
        message_id, guild_id, channel_id, author_id, author_name,
        structure_score, content_score, escalated, sent, timestamp
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := d.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for saving detection: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		rec.MessageID,
		rec.GuildID,
		rec.ChannelID,
		rec.AuthorID,
		rec.AuthorName,
		rec.StructureScore,
		rec.ContentScore,
		rec.Escalated,
		rec.Sent,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to execute statement for saving detection %s: %w", rec.MessageID, err)
	}

	return nil
}

// CountSince returns the number of detections at or after the given unix timestamp.
func (d *DetectionDB) CountSince(since int64) (int64, error) {
	var count int64
	err := d.db.QueryRow("SELECT COUNT(*) FROM detections WHERE timestamp >= ?", since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count detections: %w", err)
	}
	return count, nil
}

// RecentDetections returns the newest detections, newest first.
func (d *DetectionDB) RecentDetections(limit int) ([]models.Detection, error) {
	rows, err := d.db.Query(`
    SELECT message_id, guild_id, channel_id, author_id, author_name,
           structure_score, content_score, escalated, sent, timestamp
    FROM detections ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var out []models.Detection
	for rows.Next() {
		var rec models.Detection
		if err := rows.Scan(
			&rec.MessageID,
			&rec.GuildID,
			&rec.ChannelID,
			&rec.AuthorID,
			&rec.AuthorName,
			&rec.StructureScore,
			&rec.ContentScore,
			&rec.Escalated,
			&rec.Sent,
			&rec.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (d *DetectionDB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
