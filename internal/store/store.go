package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcoalonso/nytpopular/pkg/models"
	_ "modernc.org/sqlite"
)

// ErrDuplicate is returned when inserting a favourite whose id is
// already stored. Callers are expected to check-then-insert.
var ErrDuplicate = errors.New("favourite already exists")

// Store persists favourite articles in a single sqlite table keyed by
// the remote article id.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and initializes the schema.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS favourites (
			id INTEGER PRIMARY KEY,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			byline TEXT NOT NULL,
			published_date TEXT NOT NULL,
			abstract TEXT NOT NULL,
			image_url TEXT
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// Insert stores a favourite. Returns ErrDuplicate if the id is present.
func (s *Store) Insert(fav models.Favourite) error {
	var imageURL sql.NullString
	if fav.ImageURL != "" {
		imageURL = sql.NullString{String: fav.ImageURL, Valid: true}
	}

	_, err := s.db.Exec(
		"INSERT INTO favourites (id, url, title, byline, published_date, abstract, image_url) VALUES (?, ?, ?, ?, ?, ?, ?)",
		fav.ID, fav.URL, fav.Title, fav.Byline, fav.PublishedDate, fav.Abstract, imageURL,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting favourite: %w", err)
	}

	return nil
}

// Delete removes a favourite. Deleting an absent id is a no-op.
func (s *Store) Delete(id int64) error {
	if _, err := s.db.Exec("DELETE FROM favourites WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting favourite: %w", err)
	}
	return nil
}

// DeleteAll clears the table.
func (s *Store) DeleteAll() error {
	if _, err := s.db.Exec("DELETE FROM favourites"); err != nil {
		return fmt.Errorf("deleting favourites: %w", err)
	}
	return nil
}

// List returns all stored favourites in insertion order.
func (s *Store) List() ([]models.Favourite, error) {
	rows, err := s.db.Query("SELECT id, url, title, byline, published_date, abstract, image_url FROM favourites ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("querying favourites: %w", err)
	}
	defer rows.Close()

	var favs []models.Favourite
	for rows.Next() {
		var fav models.Favourite
		var imageURL sql.NullString
		if err := rows.Scan(&fav.ID, &fav.URL, &fav.Title, &fav.Byline, &fav.PublishedDate, &fav.Abstract, &imageURL); err != nil {
			return nil, fmt.Errorf("scanning favourite: %w", err)
		}
		if imageURL.Valid {
			fav.ImageURL = imageURL.String
		}
		favs = append(favs, fav)
	}

	return favs, rows.Err()
}

// Exists reports whether a favourite with the given id is stored.
func (s *Store) Exists(id int64) (bool, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(1) FROM favourites WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying favourite: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
