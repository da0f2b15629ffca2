package audit

import "time"

// ActorType identifies who performed an action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorAdmin  ActorType = "admin"
	ActorSystem ActorType = "system"
)

// Action describes what was done.
type Action string

const (
	ActionDocumentIngested Action = "document_ingested"
	ActionDocumentsDeleted Action = "documents_deleted"
	ActionCollectionReset  Action = "collection_reset"
)

// Entry is a single audit trail record.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	ActorType ActorType `json:"actor_type"`
	ActorID   string    `json:"actor_id"`
	Action    Action    `json:"action"`
	Owner     string    `json:"owner,omitempty"`
	Sources   []string  `json:"sources,omitempty"`
	Chunks    int       `json:"chunks"`
	Summary   string    `json:"summary,omitempty"`
}
