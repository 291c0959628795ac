package vectordb

import (
	"context"
	"errors"
	"fmt"

	chromem "github.com/philippgille/chromem-go"

	"github.com/fundedai/boothchat/internal/embeddings"
)

const (
	docsCollection  = "startup_docs"
	cardsCollection = "startup_cards"
)

// ChromemStore implements Store using chromem-go with on-disk persistence.
type ChromemStore struct {
	db    *chromem.DB
	docs  *chromemCollection
	cards *chromemCollection
}

// NewChromemStore opens (or creates) a persistent chromem database in dir.
func NewChromemStore(dir string, embedder embeddings.Embedder) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	ef := embeddings.ToChromemFunc(embedder)

	docs, err := db.GetOrCreateCollection(docsCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", docsCollection, err)
	}
	cards, err := db.GetOrCreateCollection(cardsCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", cardsCollection, err)
	}

	return &ChromemStore{
		db:    db,
		docs:  &chromemCollection{col: docs},
		cards: &chromemCollection{col: cards},
	}, nil
}

// NewMemoryStore creates an in-memory store (useful for testing).
func NewMemoryStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	docs, err := db.GetOrCreateCollection(docsCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", docsCollection, err)
	}
	cards, err := db.GetOrCreateCollection(cardsCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", cardsCollection, err)
	}

	return &ChromemStore{
		db:    db,
		docs:  &chromemCollection{col: docs},
		cards: &chromemCollection{col: cards},
	}, nil
}

func (s *ChromemStore) Docs() Collection  { return s.docs }
func (s *ChromemStore) Cards() Collection { return s.cards }

// chromemCollection adapts a chromem.Collection to the Collection interface.
type chromemCollection struct {
	col *chromem.Collection
}

func (c *chromemCollection) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  metadataToMap(doc.Metadata),
		}
	}

	return c.col.AddDocuments(ctx, chromDocs, 1)
}

func (c *chromemCollection) Query(ctx context.Context, embedding []float32, k int) ([]SearchResult, error) {
	count := c.col.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go rejects nResults larger than the collection.
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := c.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (c *chromemCollection) GetAll(ctx context.Context, probe string) ([]Document, error) {
	count := c.col.Count()
	if count == 0 {
		return nil, nil
	}

	// Querying with k = count returns the full collection, ranked.
	results, err := c.col.Query(ctx, probe, count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query all: %w", err)
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = Document{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: mapToMetadata(r.Metadata),
		}
	}
	return docs, nil
}

func (c *chromemCollection) Get(ctx context.Context, id string) (Document, bool, error) {
	doc, err := c.col.GetByID(ctx, id)
	if err != nil {
		// chromem reports missing IDs as errors; treat that as not-found.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Document{}, false, err
		}
		return Document{}, false, nil
	}
	return Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: mapToMetadata(doc.Metadata),
	}, true, nil
}

func (c *chromemCollection) Count() int {
	return c.col.Count()
}
