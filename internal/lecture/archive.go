package lecture

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"lfd/internal/lecture/interfaces"
	"lfd/internal/models"
	"lfd/internal/providers"
	"lfd/internal/structures"
)

// archiveSchemaVersion is the latest archive schema supported by the
// migrator.
const archiveSchemaVersion = 1

// Archive stores idle lectures in a local SQLite database so they can
// be dropped from memory and pulled back on demand.
type Archive struct {
	db     *sql.DB
	logger providers.Logger
}

func NewArchive(conf *structures.Config, logger providers.Logger) (interfaces.ArchiverInterface, error) {
	if conf.Feedback.ArchivePath == "" {
		logger.Infof(providers.TypeApp, "Lecture archive disabled")
		return &noopArchive{}, nil
	}

	db, err := sql.Open("sqlite", conf.Feedback.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := migrateArchive(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof(providers.TypeApp, "Lecture archive at %s", conf.Feedback.ArchivePath)
	return &Archive{db: db, logger: logger}, nil
}

func migrateArchive(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate archive: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate archive: read version: %w", err)
	}
	if current >= archiveSchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate archive: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lectures (
			id          TEXT PRIMARY KEY,
			archived_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			lecture TEXT NOT NULL REFERENCES lectures(id) ON DELETE CASCADE,
			seq     INTEGER NOT NULL,
			ts_ms   INTEGER NOT NULL,
			type    TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS comments (
			lecture    TEXT NOT NULL REFERENCES lectures(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			id         TEXT NOT NULL,
			parent_id  TEXT,
			type       TEXT NOT NULL,
			author     TEXT,
			content    TEXT,
			created_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_lecture ON events(lecture, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_lecture ON comments(lecture, seq);`,
		`INSERT INTO schema_migrations (version) VALUES (1);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("migrate archive: %w", err)
		}
	}
	return tx.Commit()
}

func (a *Archive) Archive(lecture string, data *models.LectureData) error {
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("archive %s: %w", lecture, err)
	}
	defer func() { _ = tx.Rollback() }()

	// Re-archiving replaces any previous rows for the lecture.
	for _, stmt := range []string{
		`DELETE FROM events WHERE lecture = ?;`,
		`DELETE FROM comments WHERE lecture = ?;`,
		`DELETE FROM lectures WHERE id = ?;`,
	} {
		if _, err := tx.Exec(stmt, lecture); err != nil {
			return fmt.Errorf("archive %s: %w", lecture, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO lectures (id, archived_at) VALUES (?, ?);`,
		lecture, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("archive %s: %w", lecture, err)
	}

	for i, ev := range data.Events {
		_, err = tx.Exec(`INSERT INTO events (lecture, seq, ts_ms, type) VALUES (?, ?, ?, ?);`,
			lecture, i, ev.TimestampMs, ev.Type)
		if err != nil {
			return fmt.Errorf("archive %s: event %d: %w", lecture, i, err)
		}
	}
	for i, c := range data.Comments {
		parent := sql.NullString{}
		if pid, ok := c.ParentID(); ok {
			parent = sql.NullString{String: pid, Valid: true}
		}
		_, err = tx.Exec(`INSERT INTO comments (lecture, seq, id, parent_id, type, author, content, created_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			lecture, i, c.Key.ID, parent, c.Type, c.Author, c.Content, c.CreatedMs)
		if err != nil {
			return fmt.Errorf("archive %s: comment %d: %w", lecture, i, err)
		}
	}

	return tx.Commit()
}

func (a *Archive) Restore(lecture string) (*models.LectureData, bool, error) {
	var archivedAt string
	err := a.db.QueryRow(`SELECT archived_at FROM lectures WHERE id = ?;`, lecture).Scan(&archivedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}

	data := &models.LectureData{
		Events:   make([]*models.FeedbackEvent, 0),
		Comments: make([]*models.Comment, 0),
	}

	rows, err := a.db.Query(`SELECT ts_ms, type FROM events WHERE lecture = ? ORDER BY seq;`, lecture)
	if err != nil {
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}
	for rows.Next() {
		ev := &models.FeedbackEvent{Lecture: lecture}
		if err := rows.Scan(&ev.TimestampMs, &ev.Type); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
		}
		data.Events = append(data.Events, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}
	rows.Close()

	rows, err = a.db.Query(`SELECT id, parent_id, type, author, content, created_ms
		FROM comments WHERE lecture = ? ORDER BY seq;`, lecture)
	if err != nil {
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}
	for rows.Next() {
		c := &models.Comment{}
		var parent sql.NullString
		if err := rows.Scan(&c.Key.ID, &parent, &c.Type, &c.Author, &c.Content, &c.CreatedMs); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
		}
		if parent.Valid {
			c.ParentRef = &models.ParentKey{Value: &models.CommentKey{ID: parent.String}}
		}
		data.Comments = append(data.Comments, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}
	rows.Close()

	// Move semantics: the lecture goes back to memory, the archive
	// copy is dropped.
	tx, err := a.db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range []string{
		`DELETE FROM events WHERE lecture = ?;`,
		`DELETE FROM comments WHERE lecture = ?;`,
		`DELETE FROM lectures WHERE id = ?;`,
	} {
		if _, err := tx.Exec(stmt, lecture); err != nil {
			return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("restore %s: %w", lecture, err)
	}

	return data, true, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// noopArchive is used when no archive path is configured: idle sweeps
// become no-ops and nothing is ever restored.
type noopArchive struct{}

func (n *noopArchive) Archive(_ string, _ *models.LectureData) error { return nil }
func (n *noopArchive) Restore(_ string) (*models.LectureData, bool, error) {
	return nil, false, nil
}
func (n *noopArchive) Close() error { return nil }
