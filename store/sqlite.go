package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"
)

const defaultCacheSize = 256

// SQLiteStore keeps documents as JSON rows keyed by (collection, id), with
// an LRU read cache in front of Get. Writes invalidate through the cache.
type SQLiteStore struct {
	db    *sql.DB
	cache *lru.Cache[string, Document]
}

// OpenSQLite opens (creating if needed) the document database at path.
func OpenSQLite(path string, cacheSize int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS documents (
        collection TEXT NOT NULL,
        id TEXT NOT NULL,
        body TEXT NOT NULL,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (collection, id)
    );
    CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
    `
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, err
	}

	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, Document](cacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, cache: cache}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	cacheKey := collection + "/" + id
	if doc, ok := s.cache.Get(cacheKey); ok {
		return doc, nil
	}

	var body string
	err := s.db.QueryRowContext(ctx, `
        SELECT body FROM documents WHERE collection = ? AND id = ?`,
		collection, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, err
	}
	s.cache.Add(cacheKey, doc)
	return doc, nil
}

func (s *SQLiteStore) Put(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO documents (collection, id, body, updated_at)
        VALUES (?, ?, ?, ?)`,
		collection, id, string(body), time.Now().UTC())
	if err != nil {
		return err
	}
	s.cache.Add(collection+"/"+id, doc)
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) Query(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT body FROM documents WHERE collection = ? ORDER BY id`,
		collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var doc Document
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	if err != nil {
		return err
	}
	s.cache.Remove(collection + "/" + id)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
