package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// JSONStore keeps the article and post collections in two JSON documents,
// read fully on each access and rewritten whole on each mutation. Writes are
// not atomic: a crash mid-write can corrupt a file, which the next read
// recovers from by reinitializing it. That loss is accepted.
type JSONStore struct {
	articlesPath string
	postsPath    string
}

type articlesDoc struct {
	Articles []Article `json:"articles"`
}

type postsDoc struct {
	Posts []PostRecord `json:"posts"`
}

var _ ArticleRepository = (*JSONStore)(nil)
var _ PostRepository = (*JSONStore)(nil)

func NewJSONStore(articlesPath, postsPath string) (*JSONStore, error) {
	for _, path := range []string{articlesPath, postsPath} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	return &JSONStore{articlesPath: articlesPath, postsPath: postsPath}, nil
}

// GetArticle returns the stored article with the given id, or nil
func (s *JSONStore) GetArticle(id string) (*Article, error) {
	doc, err := s.readArticles()
	if err != nil {
		return nil, err
	}

	for i := range doc.Articles {
		if doc.Articles[i].ID == id {
			return &doc.Articles[i], nil
		}
	}

	return nil, nil
}

func (s *JSONStore) GetArticleCount() (int, error) {
	doc, err := s.readArticles()
	if err != nil {
		return 0, err
	}
	return len(doc.Articles), nil
}

// SaveArticle inserts or replaces the article with the same id
func (s *JSONStore) SaveArticle(article *Article) error {
	doc, err := s.readArticles()
	if err != nil {
		return err
	}

	replaced := false
	for i := range doc.Articles {
		if doc.Articles[i].ID == article.ID {
			doc.Articles[i] = *article
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Articles = append(doc.Articles, *article)
	}

	return s.writeFile(s.articlesPath, doc)
}

// MarkUnitPosted flips one unit's posted flag to true
func (s *JSONStore) MarkUnitPosted(articleID, unitID string) error {
	doc, err := s.readArticles()
	if err != nil {
		return err
	}

	for i := range doc.Articles {
		if doc.Articles[i].ID != articleID {
			continue
		}
		for j := range doc.Articles[i].Units {
			if doc.Articles[i].Units[j].ID == unitID {
				doc.Articles[i].Units[j].Posted = true
				return s.writeFile(s.articlesPath, doc)
			}
		}
	}

	return fmt.Errorf("unit %s not found in article %s", unitID, articleID)
}

// AppendPost appends one record to the post log
func (s *JSONStore) AppendPost(record PostRecord) error {
	doc, err := s.readPosts()
	if err != nil {
		return err
	}

	doc.Posts = append(doc.Posts, record)

	return s.writeFile(s.postsPath, doc)
}

// GetRecentPosts returns up to limit records, newest first
func (s *JSONStore) GetRecentPosts(limit int) ([]PostRecord, error) {
	doc, err := s.readPosts()
	if err != nil {
		return nil, err
	}

	posts := make([]PostRecord, 0, limit)
	for i := len(doc.Posts) - 1; i >= 0 && len(posts) < limit; i-- {
		posts = append(posts, doc.Posts[i])
	}

	return posts, nil
}

func (s *JSONStore) GetPostCount() (int, error) {
	doc, err := s.readPosts()
	if err != nil {
		return 0, err
	}
	return len(doc.Posts), nil
}

func (s *JSONStore) readArticles() (*articlesDoc, error) {
	doc := &articlesDoc{}
	if err := s.readFile(s.articlesPath, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *JSONStore) readPosts() (*postsDoc, error) {
	doc := &postsDoc{}
	if err := s.readFile(s.postsPath, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// readFile loads one JSON document. A missing, empty, or unparseable file
// yields the zero document; corruption is logged, not fatal.
func (s *JSONStore) readFile(path string, doc any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, doc); err != nil {
		slog.Warn("Store document unreadable, reinitializing", "path", path, "error", err)
	}

	return nil
}

func (s *JSONStore) writeFile(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
