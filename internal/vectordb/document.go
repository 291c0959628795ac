package vectordb

// Document represents a piece of content stored for similarity search.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  DocumentMetadata
}

// DocumentMetadata holds structured information about a stored chunk.
type DocumentMetadata struct {
	Source      string // originating filename
	Section     string // matched header or synthetic chunk_N label
	ContentHash string
}

// SearchResult pairs a document with its cosine similarity to the query.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// metadataToMap converts DocumentMetadata to a flat map for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"source":       m.Source,
		"section":      m.Section,
		"content_hash": m.ContentHash,
	}
}

// mapToMetadata converts a flat map back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	return DocumentMetadata{
		Source:      m["source"],
		Section:     m["section"],
		ContentHash: m["content_hash"],
	}
}
