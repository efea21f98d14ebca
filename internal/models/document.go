package models

import (
	"time"
)

// Paragraph is one addressable unit of a law document
type Paragraph struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// LawDocument is a published legal document open for comments
type LawDocument struct {
	ID         string      `json:"id" db:"id"`
	Title      string      `json:"title" db:"title"`
	Paragraphs []Paragraph `json:"paragraphs" db:"-"`
	Active     bool        `json:"is_active" db:"is_active"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// HasParagraph reports whether id is one of the document's paragraphs
func (d *LawDocument) HasParagraph(id int) bool {
	for _, p := range d.Paragraphs {
		if p.ID == id {
			return true
		}
	}
	return false
}
