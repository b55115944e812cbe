// Package archive provides semantic search over completed action records.
package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/vaultpilot/internal/action"
)

// Hit is one search result.
type Hit struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float32           `json:"similarity"`
}

// Index stores archived records as embedded documents. The embedding
// function is injected so production can use OpenAI while tests run a local
// deterministic one.
type Index struct {
	collection *chromem.Collection
}

// New creates an Index persisted under dir. Pass a nil embed func to use
// chromem's default.
func New(dir string, embed chromem.EmbeddingFunc) (*Index, error) {
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening archive index: %w", err)
	}
	collection, err := db.GetOrCreateCollection("done-actions", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("opening archive collection: %w", err)
	}
	return &Index{collection: collection}, nil
}

// NewInMemory creates a non-persistent Index, used by tests.
func NewInMemory(embed chromem.EmbeddingFunc) (*Index, error) {
	collection, err := chromem.NewDB().CreateCollection("done-actions", nil, embed)
	if err != nil {
		return nil, fmt.Errorf("creating archive collection: %w", err)
	}
	return &Index{collection: collection}, nil
}

// OpenAIEmbedding returns the production embedding function.
func OpenAIEmbedding(apiKey, model string) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOpenAI(apiKey, chromem.EmbeddingModelOpenAI(model))
}

// Add indexes one archived record.
func (i *Index) Add(ctx context.Context, rec action.Record) error {
	err := i.collection.AddDocument(ctx, chromem.Document{
		ID:      rec.ID(),
		Content: rec.Body,
		Metadata: map[string]string{
			"path":     filepath.Base(rec.Path),
			"type":     rec.Meta.Type,
			"priority": rec.Meta.Priority,
			"created":  rec.Meta.Created,
		},
	})
	if err != nil {
		return fmt.Errorf("indexing %s: %w", rec.ID(), err)
	}
	return nil
}

// Search returns up to k archived records semantically close to query.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k < 1 {
		k = 5
	}
	if count := i.collection.Count(); count < k {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := i.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("searching archive: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return hits, nil
}
