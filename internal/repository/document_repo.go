package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/law-comments-api/internal/database"
	"github.com/law-comments-api/internal/models"
)

// documentRepo is the concrete implementation of DocumentRepository
type documentRepo struct {
	db *database.DB
}

// NewDocumentRepo creates a new document repository
func NewDocumentRepo(db *database.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func scanDocument(row rowScanner) (*models.LawDocument, error) {
	var (
		doc        models.LawDocument
		paragraphs []byte
	)
	if err := row.Scan(&doc.ID, &doc.Title, &paragraphs, &doc.Active, &doc.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(paragraphs, &doc.Paragraphs); err != nil {
		return nil, fmt.Errorf("decode paragraphs of %s: %w", doc.ID, err)
	}
	return &doc, nil
}

// GetActive retrieves the document currently open for comments
func (r *documentRepo) GetActive(ctx context.Context) (*models.LawDocument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, paragraphs, is_active, created_at FROM law_documents WHERE is_active LIMIT 1`)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

// GetByID retrieves a document by ID
func (r *documentRepo) GetByID(ctx context.Context, id string) (*models.LawDocument, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, paragraphs, is_active, created_at FROM law_documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return doc, err
}

// Save upserts a document. Activation and deactivation of the previous
// active document happen in one transaction so the single-active index holds.
func (r *documentRepo) Save(ctx context.Context, doc *models.LawDocument) error {
	paragraphs, err := json.Marshal(doc.Paragraphs)
	if err != nil {
		return fmt.Errorf("encode paragraphs: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if doc.Active {
			if _, err := tx.ExecContext(ctx,
				`UPDATE law_documents SET is_active = FALSE WHERE is_active AND id <> $1`, doc.ID); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO law_documents (id, title, paragraphs, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET title = EXCLUDED.title, paragraphs = EXCLUDED.paragraphs, is_active = EXCLUDED.is_active
		`
		_, err := tx.ExecContext(ctx, query, doc.ID, doc.Title, string(paragraphs), doc.Active, doc.CreatedAt)
		return mapPQError(err)
	})
}
