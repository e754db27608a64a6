// Package vectorstore wraps chromem-go with one collection per knowledge
// source and disk persistence. The agent queries it with short keyword
// queries; indexing happens offline via the `index` command.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// Knowledge source identifiers.
const (
	SourceProducts = "products"
	SourceFAQ      = "faq"
)

// Snippet is a single semantic-search hit.
type Snippet struct {
	ID       string
	Content  string
	Score    float32
	Metadata map[string]string
}

// Document is a unit of indexable content.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Store wraps chromem-go with per-source collections and disk persistence.
type Store struct {
	mu      sync.RWMutex
	db      *chromem.DB
	embedFn chromem.EmbeddingFunc
}

// New creates (or opens) the persistent vector store at dataDir/vectorstore/.
// embedFunc is the embedding function to use — pass
// chromem.NewEmbeddingFuncOpenAICompat pointed at the configured embeddings
// endpoint.
func New(dataDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create vectorstore dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vectorstore: %w", err)
	}
	return &Store{db: db, embedFn: embedFunc}, nil
}

func collectionName(sourceID string) string {
	return "kb_" + sourceID
}

func (s *Store) getOrCreateCollection(sourceID string) *chromem.Collection {
	name := collectionName(sourceID)
	col := s.db.GetCollection(name, s.embedFn)
	if col == nil {
		var err error
		col, err = s.db.CreateCollection(name, nil, s.embedFn)
		if err != nil {
			slog.Error("failed to create vector collection", "source", sourceID, "err", err)
			return nil
		}
	}
	return col
}

// Index adds (or re-indexes) documents under the given source.
func (s *Store) Index(ctx context.Context, sourceID string, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	col := s.getOrCreateCollection(sourceID)
	if col == nil {
		return fmt.Errorf("vectorstore: nil collection for source %q", sourceID)
	}
	for _, d := range docs {
		doc := chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: d.Metadata,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("index document %s: %w", d.ID, err)
		}
	}
	return nil
}

// Search returns the top-k snippets from a source most similar to the
// query, best match first.
func (s *Store) Search(ctx context.Context, query, sourceID string, k int) ([]Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col := s.getOrCreateCollection(sourceID)
	if col == nil {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	var results []chromem.Result
	var err error

	// chromem-go sometimes throws "nResults must be <= number of documents"
	// despite Count checks. Step down k if it fails.
	for attemptK := k; attemptK > 0; attemptK-- {
		results, err = col.Query(ctx, query, attemptK, nil, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	out := make([]Snippet, 0, len(results))
	for _, r := range results {
		out = append(out, Snippet{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Similarity,
			Metadata: r.Metadata,
		})
	}
	return out, nil
}
