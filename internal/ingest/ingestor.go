package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"

	"github.com/fundedai/boothchat/internal/config"
	"github.com/fundedai/boothchat/internal/vectordb"
)

// EmbedClient produces one embedding per text. *llm.Gateway satisfies it.
type EmbedClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ingestor populates the vector collections from the docs directory.
type Ingestor struct {
	cfg      *config.Config
	embedder EmbedClient
	store    vectordb.Store

	// extract is swappable for tests; defaults to PDF extraction.
	extract func(path string) (string, error)

	// OnProgress, when set, is called after each document finishes.
	OnProgress func(done, total int)
}

// New creates an Ingestor.
func New(cfg *config.Config, embedder EmbedClient, store vectordb.Store) *Ingestor {
	return &Ingestor{
		cfg:      cfg,
		embedder: embedder,
		store:    store,
		extract:  ExtractText,
	}
}

// EnsureIndex (re)populates the vector collections when the document set has
// changed since the last run. An unchanged set with a non-empty collection is
// a no-op. Failures in one document are logged and do not abort the others.
// Callers must not run EnsureIndex concurrently with itself.
func (ing *Ingestor) EnsureIndex(ctx context.Context) error {
	if err := os.MkdirAll(ing.cfg.DocsDir, 0o755); err != nil {
		return fmt.Errorf("creating docs dir: %w", err)
	}

	files, err := ing.listDocs()
	if err != nil {
		return fmt.Errorf("listing docs: %w", err)
	}

	state, err := LoadState(ing.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("loading index state: %w", err)
	}

	fresh := Fingerprint(files)
	if state.Fingerprint == fresh && ing.store.Docs().Count() > 0 {
		log.Debug().Msg("document set unchanged, skipping ingestion")
		return nil
	}

	if len(files) == 0 {
		log.Info().Str("dir", ing.cfg.DocsDir).Msg("no ingestible documents")
		state.Fingerprint = fresh
		return state.SaveState(ing.cfg.DataDir)
	}

	for i, f := range files {
		var ingestErr error
		if f.Name == ing.cfg.CardsFile {
			ingestErr = ing.ingestCards(ctx, f)
		} else {
			ingestErr = ing.ingestDoc(ctx, f)
		}
		if ingestErr != nil {
			log.Warn().Str("file", f.Name).Err(ingestErr).Msg("skipping document")
		}
		if ing.OnProgress != nil {
			ing.OnProgress(i+1, len(files))
		}
	}

	state.Fingerprint = fresh
	if err := state.SaveState(ing.cfg.DataDir); err != nil {
		return fmt.Errorf("saving index state: %w", err)
	}

	log.Info().Int("documents", len(files)).Int("chunks", ing.store.Docs().Count()).Msg("index rebuilt")
	return nil
}

// listDocs returns the eligible files in the docs directory, applying the
// configured include/exclude globs.
func (ing *Ingestor) listDocs() ([]DocFile, error) {
	entries, err := os.ReadDir(ing.cfg.DocsDir)
	if err != nil {
		return nil, err
	}

	var files []DocFile
	for _, e := range entries {
		if e.IsDir() || !ing.matches(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, DocFile{
			Name:    e.Name(),
			Path:    filepath.Join(ing.cfg.DocsDir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

func (ing *Ingestor) matches(name string) bool {
	included := len(ing.cfg.Include) == 0
	for _, pattern := range ing.cfg.Include {
		if ok, _ := doublestar.Match(pattern, name); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range ing.cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return false
		}
	}
	return true
}

// ingestDoc chunks one document and upserts its embedded chunks. An
// embedding failure aborts this document only.
func (ing *Ingestor) ingestDoc(ctx context.Context, f DocFile) error {
	text, err := ing.extract(f.Path)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		log.Warn().Str("file", f.Name).Msg("document has no extractable text")
		return nil
	}

	chunks := ing.chunkDocument(f.Name, text)

	docs := make([]vectordb.Document, 0, len(chunks))
	for _, c := range chunks {
		emb, err := ing.embedder.Embed(ctx, c.Content)
		if err != nil {
			return fmt.Errorf("embedding %s: %w", c.ID, err)
		}
		c.Embedding = emb
		docs = append(docs, c)
	}

	if err := ing.store.Docs().Upsert(ctx, docs); err != nil {
		return fmt.Errorf("upserting chunks: %w", err)
	}

	log.Debug().Str("file", f.Name).Int("chunks", len(docs)).Msg("document indexed")
	return nil
}

// chunkDocument splits a document into labeled chunks: matched sections when
// the headers are present, fixed-size windows otherwise. Oversized sections
// are sub-chunked with the fixed-size path.
func (ing *Ingestor) chunkDocument(name, text string) []vectordb.Document {
	size, overlap := ing.cfg.ChunkSize, ing.cfg.ChunkOverlap

	sections := SplitSections(text, config.SectionHeaders)
	if len(sections) == 0 {
		var docs []vectordb.Document
		for i, part := range Chunk(text, size, overlap) {
			label := fmt.Sprintf("chunk_%d", i)
			docs = append(docs, chunkDoc(name, label, label, part))
		}
		return docs
	}

	var docs []vectordb.Document
	for _, sec := range sections {
		if len(sec.Text) > 2*size {
			for i, part := range Chunk(sec.Text, size, overlap) {
				id := fmt.Sprintf("%s#%d", sec.Label, i)
				docs = append(docs, chunkDoc(name, id, sec.Label, part))
			}
			continue
		}
		docs = append(docs, chunkDoc(name, sec.Label, sec.Label, sec.Text))
	}
	return docs
}

func chunkDoc(source, id, section, content string) vectordb.Document {
	return vectordb.Document{
		ID:      source + ":" + id,
		Content: content,
		Metadata: vectordb.DocumentMetadata{
			Source:      source,
			Section:     section,
			ContentHash: contentHash(content),
		},
	}
}

// ingestCards indexes the curated cards document into the cards collection,
// keyed by canonical section name so each section has exactly one card.
func (ing *Ingestor) ingestCards(ctx context.Context, f DocFile) error {
	text, err := ing.extract(f.Path)
	if err != nil {
		return fmt.Errorf("extracting cards: %w", err)
	}

	sections := SplitSections(text, config.SectionHeaders)
	if len(sections) == 0 {
		log.Warn().Str("file", f.Name).Msg("cards source has no recognizable sections")
		return nil
	}

	cards := make([]vectordb.Document, 0, len(sections))
	for _, sec := range sections {
		emb, err := ing.embedder.Embed(ctx, sec.Text)
		if err != nil {
			return fmt.Errorf("embedding card %s: %w", sec.Label, err)
		}
		cards = append(cards, vectordb.Document{
			ID:        sec.Label,
			Content:   sec.Text,
			Embedding: emb,
			Metadata: vectordb.DocumentMetadata{
				Source:      f.Name,
				Section:     sec.Label,
				ContentHash: contentHash(sec.Text),
			},
		})
	}

	if err := ing.store.Cards().Upsert(ctx, cards); err != nil {
		return fmt.Errorf("upserting cards: %w", err)
	}

	log.Debug().Str("file", f.Name).Int("cards", len(cards)).Msg("cards indexed")
	return nil
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:8])
}
