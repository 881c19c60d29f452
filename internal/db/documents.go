package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/preflight/internal/content"
)

// Document returns the document with id. Properties are stored already
// resolved against the content type, in display order.
func (db *DB) Document(ctx context.Context, id int) (*content.Document, error) {
	var (
		doc   content.Document
		props []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, content_type, properties FROM documents WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Name, &doc.ContentType, &props)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", content.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("failed to get document %d: %w", id, err)
	}

	properties, err := decodeProperties(props)
	if err != nil {
		return nil, fmt.Errorf("document %d: %w", id, err)
	}
	doc.Properties = properties
	return &doc, nil
}

// SaveDocument inserts or replaces doc.
func (db *DB) SaveDocument(ctx context.Context, doc *content.Document) error {
	props, err := encodeProperties(doc.Properties)
	if err != nil {
		return fmt.Errorf("document %d: %w", doc.ID, err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO documents (id, name, content_type, properties)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET name = $2, content_type = $3, properties = $4, updated_at = NOW()`,
		doc.ID, doc.Name, doc.ContentType, props,
	)
	if err != nil {
		return fmt.Errorf("failed to save document %d: %w", doc.ID, err)
	}
	return nil
}

// DeleteDocument removes the document with id.
func (db *DB) DeleteDocument(ctx context.Context, id int) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", content.ErrDocumentNotFound, id)
	}
	return nil
}

// encodeProperties stores every value in its rendered string form so that
// structured values round-trip exactly as the checker reads them.
func encodeProperties(props []content.Property) ([]byte, error) {
	out := make([]content.Property, len(props))
	for i, p := range props {
		out[i] = p
		out[i].Values = make([]content.PropertyValue, len(p.Values))
		for j, v := range p.Values {
			published, err := renderValue(v.Published)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", p.Alias, err)
			}
			edited, err := renderValue(v.Edited)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", p.Alias, err)
			}
			out[i].Values[j] = content.PropertyValue{Culture: v.Culture, Published: published, Edited: edited}
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal properties: %w", err)
	}
	return data, nil
}

func renderValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	s, err := content.Stringify(v)
	if err != nil || s == "" {
		return nil, err
	}
	return s, nil
}

func decodeProperties(raw []byte) ([]content.Property, error) {
	var props []content.Property
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, fmt.Errorf("failed to parse properties: %w", err)
	}
	return props, nil
}
