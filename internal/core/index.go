package core

import "context"

// Metadata keys shared by all index documents.
const (
	MetaIsUser     = "isUser"
	MetaTimestamp  = "timestamp"
	MetaImages     = "images"
	MetaEntityName = "entityName"
	MetaCreated    = "created"
)

// Document is one entry of an EmbeddingIndex namespace.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// DocumentFilter reports whether a document matches. Backends that cannot
// push predicates down evaluate it over the full namespace.
type DocumentFilter func(Document) bool

// EmbeddingIndex is a vector-searchable document store scoped to one
// namespace. Implementations must keep GetByFilter results in storage
// (insertion) order and QueryNearest results in similarity order.
type EmbeddingIndex interface {
	Insert(ctx context.Context, id, text string, metadata map[string]any) error
	// GetByID returns only the documents that exist; missing ids are skipped.
	GetByID(ctx context.Context, ids []string) ([]Document, error)
	GetByFilter(ctx context.Context, filter DocumentFilter) ([]Document, error)
	QueryNearest(ctx context.Context, query string, k int) ([]Document, error)
	DeleteByFilter(ctx context.Context, filter DocumentFilter) error
	Count(ctx context.Context) (int, error)
	// Reset drops and recreates the namespace.
	Reset(ctx context.Context) error
}
