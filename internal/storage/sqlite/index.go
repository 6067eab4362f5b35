package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/clairebot/internal/core"
	"github.com/sandevgo/clairebot/internal/storage/memindex"
)

// Index is a durable EmbeddingIndex over one namespace of the documents
// table. Embeddings are computed on insert and ranked by cosine similarity
// in Go; storage order is rowid order.
type Index struct {
	db        *sql.DB
	namespace string
	embedder  core.Embedder
}

func NewIndex(db *sql.DB, namespace string, embedder core.Embedder) *Index {
	return &Index{db: db, namespace: namespace, embedder: embedder}
}

func (x *Index) Insert(ctx context.Context, id, text string, metadata map[string]any) error {
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}
	vecBlob, err := serializeVector(vec)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = x.db.ExecContext(ctx,
		`INSERT INTO documents (namespace, doc_id, text, metadata, embedding) VALUES (?, ?, ?, ?, ?)`,
		x.namespace, id, text, string(metaJSON), vecBlob,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (x *Index) GetByID(ctx context.Context, ids []string) ([]core.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, x.namespace)
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		`SELECT doc_id, text, metadata FROM documents WHERE namespace = ? AND doc_id IN (%s) ORDER BY id`,
		placeholders,
	)
	rows, err := x.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (x *Index) GetByFilter(ctx context.Context, filter core.DocumentFilter) ([]core.Document, error) {
	rows, err := x.db.QueryContext(ctx,
		`SELECT doc_id, text, metadata FROM documents WHERE namespace = ? ORDER BY id`,
		x.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs, err := scanDocuments(rows)
	if err != nil {
		return nil, err
	}
	filtered := docs[:0]
	for _, d := range docs {
		if filter(d) {
			filtered = append(filtered, d)
		}
	}
	return filtered, nil
}

func (x *Index) QueryNearest(ctx context.Context, query string, k int) ([]core.Document, error) {
	if k <= 0 {
		return nil, nil
	}
	qvec, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := x.db.QueryContext(ctx,
		`SELECT doc_id, text, metadata, embedding FROM documents WHERE namespace = ? ORDER BY id`,
		x.namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	type scored struct {
		doc core.Document
		sim float64
	}
	var ranked []scored
	for rows.Next() {
		var (
			doc     core.Document
			metaStr sql.NullString
			vecBlob []byte
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &metaStr, &vecBlob); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.Metadata, err = parseMetadata(metaStr); err != nil {
			return nil, err
		}
		vec, err := deserializeVector(vecBlob)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, scored{doc: doc, sim: memindex.Cosine(qvec, vec)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	docs := make([]core.Document, 0, k)
	for _, r := range ranked[:k] {
		docs = append(docs, r.doc)
	}
	return docs, nil
}

func (x *Index) DeleteByFilter(ctx context.Context, filter core.DocumentFilter) error {
	docs, err := x.GetByFilter(ctx, filter)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(docs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(docs)+1)
	args = append(args, x.namespace)
	for _, d := range docs {
		args = append(args, d.ID)
	}

	_, err = x.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM documents WHERE namespace = ? AND doc_id IN (%s)`, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

func (x *Index) Count(ctx context.Context) (int, error) {
	var count int
	err := x.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE namespace = ?`, x.namespace,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (x *Index) Reset(ctx context.Context) error {
	_, err := x.db.ExecContext(ctx,
		`DELETE FROM documents WHERE namespace = ?`, x.namespace,
	)
	if err != nil {
		return fmt.Errorf("failed to reset namespace: %w", err)
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]core.Document, error) {
	var docs []core.Document
	for rows.Next() {
		var (
			doc     core.Document
			metaStr sql.NullString
		)
		if err := rows.Scan(&doc.ID, &doc.Text, &metaStr); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var err error
		if doc.Metadata, err = parseMetadata(metaStr); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

func parseMetadata(metaStr sql.NullString) (map[string]any, error) {
	meta := map[string]any{}
	if metaStr.Valid && metaStr.String != "" {
		if err := json.Unmarshal([]byte(metaStr.String), &meta); err != nil {
			return nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
	}
	return meta, nil
}
