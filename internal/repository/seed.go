package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/law-comments-api/internal/models"
)

// LoadDocumentSeed reads a law document from a JSON file. The seeded
// document is always marked active.
func LoadDocumentSeed(path string) (*models.LawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document seed: %w", err)
	}

	var doc models.LawDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document seed %s: %w", path, err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("document seed %s: id is required", path)
	}
	if len(doc.Paragraphs) == 0 {
		return nil, fmt.Errorf("document seed %s: no paragraphs", path)
	}

	seen := make(map[int]bool, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		if p.ID <= 0 || seen[p.ID] {
			return nil, fmt.Errorf("document seed %s: invalid or repeated paragraph id %d", path, p.ID)
		}
		seen[p.ID] = true
	}

	doc.Active = true
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	return &doc, nil
}
