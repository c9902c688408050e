package directory

// Node is a category-tree node as returned by the content repository.
type Node struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Path           string `json:"path"`
	SourceDocCount int    `json:"source_doc_count"`
	OutputDocCount int    `json:"output_doc_count"`
}

// Document is a document bound under a tree node.
type Document struct {
	ID            string `json:"id"`
	NodeID        string `json:"node_id"`
	Title         string `json:"title"`
	Path          string `json:"path"`
	DocType       string `json:"doc_type"`
	HasSyncConfig bool   `json:"has_sync_config"`
}

// ListNodesResponse wraps a subtree listing.
type ListNodesResponse struct {
	Nodes []Node `json:"nodes"`
	Count int    `json:"count"`
}

// ListDocumentsResponse wraps a document listing.
type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// ErrorResponse is the content repository's error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
