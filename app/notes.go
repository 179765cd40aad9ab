package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/km-arc/go-zelasli/framework/database"
)

// Note is a short text note.
type Note struct {
	ID    int64  `db:"id" json:"id"`
	Title string `db:"title" json:"title" validate:"required,min=2,max=120"`
	Body  string `db:"body" json:"body" validate:"max=2000"`
}

const notesSchema = `CREATE TABLE IF NOT EXISTS notes (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	body  TEXT NOT NULL DEFAULT ''
)`

// NoteStore persists notes in the application database.
type NoteStore struct {
	db *database.DB
}

// NewNoteStore creates the notes table if needed.
func NewNoteStore(db *database.DB) (*NoteStore, error) {
	if _, err := db.Exec(context.Background(), notesSchema); err != nil {
		return nil, fmt.Errorf("notes: migrate: %w", err)
	}
	return &NoteStore{db: db}, nil
}

// All returns every note, oldest first.
func (s *NoteStore) All(ctx context.Context) ([]Note, error) {
	notes := []Note{}
	err := s.db.Select(ctx, &notes, `SELECT id, title, body FROM notes ORDER BY id`, nil)
	return notes, err
}

// Find returns the note with id, or nil when there is none.
func (s *NoteStore) Find(ctx context.Context, id int64) (*Note, error) {
	var n Note
	err := s.db.Get(ctx, &n, `SELECT id, title, body FROM notes WHERE id = :id`, map[string]any{"id": id})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts n and sets its ID.
func (s *NoteStore) Create(ctx context.Context, n *Note) error {
	res, err := s.db.Exec(ctx, `INSERT INTO notes (title, body) VALUES (?, ?)`, n.Title, n.Body)
	if err != nil {
		return err
	}
	n.ID, err = res.LastInsertId()
	return err
}

// Update overwrites the title and body of n.ID and reports whether it
// existed.
func (s *NoteStore) Update(ctx context.Context, n *Note) (bool, error) {
	res, err := s.db.Exec(ctx, `UPDATE notes SET title = ?, body = ? WHERE id = ?`, n.Title, n.Body, n.ID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	return rows > 0, err
}

// Delete removes the note with id and reports whether it existed.
func (s *NoteStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.Exec(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
