package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the database-backed alternative to the JSON documents,
// for deployments that want durable writes instead of whole-file rewrites.
// It implements the same repositories.
type SQLiteStore struct {
	db *sql.DB
}

var _ ArticleRepository = (*SQLiteStore)(nil)
var _ PostRepository = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under the scheduler + API server
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, _, err := RunMigrations(db); err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetArticle(id string) (*Article, error) {
	article := &Article{}
	var createdAt string

	err := s.db.QueryRow(`
		SELECT id, url, created_at FROM articles WHERE id = ?
	`, id).Scan(&article.ID, &article.URL, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	if article.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse article timestamp: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT id, kind, text, COALESCE(links, ''), COALESCE(image, ''), posted
		FROM units
		WHERE article_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var unit ContentUnit
		var links, image string

		if err := rows.Scan(&unit.ID, &unit.Kind, &unit.Text, &links, &image, &unit.Posted); err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}

		if links != "" {
			if err := json.Unmarshal([]byte(links), &unit.Links); err != nil {
				return nil, fmt.Errorf("failed to decode unit links: %w", err)
			}
		}
		if image != "" {
			unit.Image = &Image{}
			if err := json.Unmarshal([]byte(image), unit.Image); err != nil {
				return nil, fmt.Errorf("failed to decode unit image: %w", err)
			}
		}

		article.Units = append(article.Units, unit)
	}

	return article, rows.Err()
}

func (s *SQLiteStore) GetArticleCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) SaveArticle(article *Article) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO articles (id, url, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET url = excluded.url
	`, article.ID, article.URL, article.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to store article: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM units WHERE article_id = ?`, article.ID); err != nil {
		return fmt.Errorf("failed to clear units: %w", err)
	}

	for position, unit := range article.Units {
		var links, image []byte

		if len(unit.Links) > 0 {
			if links, err = json.Marshal(unit.Links); err != nil {
				return fmt.Errorf("failed to encode unit links: %w", err)
			}
		}
		if unit.Image != nil {
			if image, err = json.Marshal(unit.Image); err != nil {
				return fmt.Errorf("failed to encode unit image: %w", err)
			}
		}

		_, err = tx.Exec(`
			INSERT INTO units (id, article_id, position, kind, text, links, image, posted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, unit.ID, article.ID, position, unit.Kind, unit.Text, string(links), string(image), unit.Posted)
		if err != nil {
			return fmt.Errorf("failed to store unit: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) MarkUnitPosted(articleID, unitID string) error {
	result, err := s.db.Exec(`
		UPDATE units SET posted = TRUE WHERE article_id = ? AND id = ?
	`, articleID, unitID)
	if err != nil {
		return fmt.Errorf("failed to mark unit posted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("unit %s not found in article %s", unitID, articleID)
	}

	return nil
}

func (s *SQLiteStore) AppendPost(record PostRecord) error {
	var facets []byte
	var err error

	if len(record.Facets) > 0 {
		if facets, err = json.Marshal(record.Facets); err != nil {
			return fmt.Errorf("failed to encode facets: %w", err)
		}
	}

	_, err = s.db.Exec(`
		INSERT INTO posts (uri, text, facets, created_at) VALUES (?, ?, ?, ?)
	`, record.URI, record.Text, string(facets), record.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to append post: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetRecentPosts(limit int) ([]PostRecord, error) {
	rows, err := s.db.Query(`
		SELECT uri, text, COALESCE(facets, ''), created_at
		FROM posts
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	var posts []PostRecord
	for rows.Next() {
		var record PostRecord
		var facets, createdAt string

		if err := rows.Scan(&record.URI, &record.Text, &facets, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		if facets != "" {
			if err := json.Unmarshal([]byte(facets), &record.Facets); err != nil {
				return nil, fmt.Errorf("failed to decode facets: %w", err)
			}
		}
		if record.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse post timestamp: %w", err)
		}

		posts = append(posts, record)
	}

	return posts, rows.Err()
}

func (s *SQLiteStore) GetPostCount() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}
