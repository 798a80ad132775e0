package database

import (
	"context"
	"database/sql"

	"github.com/korjavin/quizpollbot/models"
	_ "github.com/mattn/go-sqlite3"
)

// DB archives quiz answers in sqlite
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err = createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS quiz_answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			chat_id INTEGER NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_quiz_answers_session ON quiz_answers (session_id)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_quiz_answers_chat ON quiz_answers (chat_id)`)
	return err
}

// SaveAnswer appends one answer to the archive
func (db *DB) SaveAnswer(ctx context.Context, rec models.AnswerRecord) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO quiz_answers (session_id, chat_id, question, answer, timestamp) VALUES (?, ?, ?, ?, ?)",
		rec.SessionID, rec.ChatID, rec.Question, rec.Answer, rec.Timestamp,
	)
	return err
}

// SessionAnswers returns a session's answers in the order they were given
func (db *DB) SessionAnswers(ctx context.Context, sessionID string) ([]models.AnswerRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT session_id, chat_id, question, answer, timestamp
		FROM quiz_answers
		WHERE session_id = ?
		ORDER BY id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.AnswerRecord
	for rows.Next() {
		var rec models.AnswerRecord
		if err := rows.Scan(&rec.SessionID, &rec.ChatID, &rec.Question, &rec.Answer, &rec.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	return result, rows.Err()
}

// CountChatAnswers reports how many answers a chat has given across sessions
func (db *DB) CountChatAnswers(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM quiz_answers WHERE chat_id = ?",
		chatID,
	).Scan(&count)
	return count, err
}
