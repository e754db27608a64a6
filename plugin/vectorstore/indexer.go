package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// catalogEntry mirrors one product in data/product_catalog.json. The full
// JSON object is stored as the document content so search hits can be
// decoded back into product records without a second lookup.
type catalogEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// IndexCatalog loads the product catalog JSON file and indexes every
// product into the products source. Returns the number of documents
// indexed.
func (s *Store) IndexCatalog(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return 0, fmt.Errorf("parse catalog: %w", err)
	}

	docs := make([]Document, 0, len(entries))
	for i, entry := range entries {
		var meta catalogEntry
		if err := json.Unmarshal(entry, &meta); err != nil {
			return 0, fmt.Errorf("parse catalog entry %d: %w", i, err)
		}
		docs = append(docs, Document{
			ID:      strconv.Itoa(meta.ID),
			Content: string(entry),
			Metadata: map[string]string{
				"name": meta.Name,
				"type": meta.Type,
			},
		})
	}
	if err := s.Index(ctx, SourceProducts, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// IndexFAQ loads the FAQ text file (blocks of "Q: ..." / "A: ..." separated
// by blank lines) and indexes each entry into the faq source.
func (s *Store) IndexFAQ(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read faq: %w", err)
	}

	var docs []Document
	for i, block := range strings.Split(string(raw), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" || !strings.Contains(block, "Q:") {
			continue
		}
		docs = append(docs, Document{
			ID:      fmt.Sprintf("faq-%d", i+1),
			Content: block,
		})
	}
	if err := s.Index(ctx, SourceFAQ, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}
