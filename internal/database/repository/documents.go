package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/doroshop/dsadmin/internal/database"
)

// ErrNotFound is returned for a missing document.
var ErrNotFound = errors.New("document not found")

// Document is one stored JSON object.
type Document = map[string]any

// Documents stores JSON documents grouped by collection. List returns
// documents in insertion order.
type Documents interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	Insert(ctx context.Context, collection, id string, doc Document) error
	Replace(ctx context.Context, collection, id string, doc Document) error
	Delete(ctx context.Context, collection, id string) error
	Count(ctx context.Context, collection string) (int, error)
}

// DocumentRepo is the sqlite implementation.
type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) List(ctx context.Context, collection string) ([]Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT body FROM documents WHERE collection = ? ORDER BY rowid`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (r *DocumentRepo) Get(ctx context.Context, collection, id string) (Document, error) {
	var body string
	err := r.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(body)
}

func (r *DocumentRepo) Insert(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO documents(collection, id, body, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`, collection, id, string(body), database.Now(), database.Now())
	return err
}

func (r *DocumentRepo) Replace(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	res, err := r.db.ExecContext(ctx, `
	UPDATE documents SET body = ?, updated_at = ?
	WHERE collection = ? AND id = ?`, string(body), database.Now(), collection, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *DocumentRepo) Delete(ctx context.Context, collection, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *DocumentRepo) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE collection = ?`, collection).Scan(&n)
	return n, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decode(body string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// MemoryDocuments keeps documents in process. Documents are stored as JSON so
// callers never share maps with the store.
type MemoryDocuments struct {
	mu    sync.RWMutex
	order map[string][]string
	docs  map[string]map[string]string
}

func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{order: map[string][]string{}, docs: map[string]map[string]string{}}
}

func (m *MemoryDocuments) List(_ context.Context, collection string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Document{}
	for _, id := range m.order[collection] {
		doc, err := decode(m.docs[collection][id])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *MemoryDocuments) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.docs[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return decode(body)
}

func (m *MemoryDocuments) Insert(_ context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]string{}
	}
	if _, dup := m.docs[collection][id]; dup {
		return fmt.Errorf("insert %s/%s: duplicate id", collection, id)
	}
	m.docs[collection][id] = string(body)
	m.order[collection] = append(m.order[collection], id)
	return nil
}

func (m *MemoryDocuments) Replace(_ context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[collection][id]; !ok {
		return ErrNotFound
	}
	m.docs[collection][id] = string(body)
	return nil
}

func (m *MemoryDocuments) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.docs[collection], id)
	ids := m.order[collection]
	for i, v := range ids {
		if v == id {
			m.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryDocuments) Count(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs[collection]), nil
}
