package core

const (
	ClaireName    = "Claire"
	ClaireVersion = "0.1.0"
)

// Message is one turn of a conversation. ID is the decimal string form of a
// monotonically increasing integer assigned per profile on append, except for
// scheduled messages, which carry an opaque unique token until delivery.
type Message struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	IsUser    bool     `json:"isUser"`
	Timestamp int64    `json:"timestamp"` // milliseconds since epoch
	Images    []string `json:"images"`
}

// EntityFact is one timestamped fact document about a named entity. Facts are
// never rewritten in place; new information becomes a new fact.
type EntityFact struct {
	ID         string
	EntityName string
	Text       string
	CreatedAt  int64 // unix seconds
}

// Profile scopes one message ledger, one entity store and one scheduled
// queue. Profiles are managed externally; this core only reads them.
type Profile struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// HistoryNamespace and EntityNamespace derive the index namespaces owned by a
// profile.
func (p Profile) HistoryNamespace() string { return p.UUID + "_history" }
func (p Profile) EntityNamespace() string  { return p.UUID + "_entities" }
