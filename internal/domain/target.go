package domain

// TargetKind distinguishes what a candidate target refers to.
type TargetKind string

const (
	// TargetKindNode is a category-tree node (workflow batches).
	TargetKindNode TargetKind = "node"
	// TargetKindDocument is a document bound under a node (sync batches).
	TargetKindDocument TargetKind = "document"
)

// Target is one candidate for a batch item, as enumerated from the
// content repository.
type Target struct {
	ID          string
	Kind        TargetKind
	DisplayName string
	DisplayPath string

	// SourceDocCount is the number of associated source documents
	// (node targets).
	SourceDocCount int
	// OutputDocCount is the number of producible output documents
	// (node targets).
	OutputDocCount int
	// DocType is the document type (document targets).
	DocType string
	// HasSyncConfig reports whether a sync-target configuration is bound
	// (document targets).
	HasSyncConfig bool
}

// SkipPolicy is the set of independently toggleable rules that exclude a
// target from execution without error. Rules are evaluated in struct
// order; the first match supplies the skip reason.
type SkipPolicy struct {
	SkipNoSource     bool     `json:"skip_no_source"`
	SkipNoOutput     bool     `json:"skip_no_output"`
	SkipNameContains []string `json:"skip_name_contains,omitempty"`
	SkipDocTypes     []string `json:"skip_doc_types,omitempty"`
}

// TargetPreviewItem is the per-target entry of a preview. Transient, never
// persisted.
type TargetPreviewItem struct {
	TargetID    string `json:"target_id"`
	DisplayName string `json:"display_name"`
	DisplayPath string `json:"display_path"`
	CanExecute  bool   `json:"can_execute"`
	SkipReason  string `json:"skip_reason,omitempty"`
}

// PreviewResult is the synchronous summary returned before execution.
type PreviewResult struct {
	Total           int                 `json:"total"`
	CanExecuteCount int                 `json:"can_execute"`
	WillSkipCount   int                 `json:"will_skip"`
	Items           []TargetPreviewItem `json:"items"`
}
