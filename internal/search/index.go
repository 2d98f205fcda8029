// Package search provides full-text search over the catalog using Bleve.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/librisapp/libris-server/internal/domain"
)

// BookDocument is the document shape indexed for each book.
// The author name is denormalized into the document so a single query
// matches titles and authors alike.
type BookDocument struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Genres []string `json:"genres"`
}

// Index wraps a Bleve index with catalog-specific operations.
//
// Thread safety: all public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	// DataPath is the directory for index storage.
	// Empty means an in-memory index (used by tests).
	DataPath string
	Logger   *slog.Logger
}

// New creates or opens a search index.
func New(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	if opts.DataPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &Index{index: index, logger: logger}, nil
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")

	index, err := bleve.Open(indexPath)
	if err != nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		logger.Info("created new search index", "path", indexPath)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{index: index, logger: logger}, nil
}

// buildIndexMapping creates the Bleve mapping for book documents:
// English-analyzed title and author, exact keyword genres.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleField := bleve.NewTextFieldMapping()
	titleField.Analyzer = en.AnalyzerName
	titleField.Store = true
	docMapping.AddFieldMappingsAt("title", titleField)

	authorField := bleve.NewTextFieldMapping()
	authorField.Analyzer = en.AnalyzerName
	authorField.Store = true
	docMapping.AddFieldMappingsAt("author", authorField)

	genreField := bleve.NewTextFieldMapping()
	genreField.Analyzer = keyword.Name
	genreField.Store = true
	docMapping.AddFieldMappingsAt("genres", genreField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexBook adds or updates a book in the index.
func (s *Index) IndexBook(ctx context.Context, book *domain.Book, authorName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := BookDocument{
		ID:     book.ID,
		Title:  book.Title,
		Author: authorName,
		Genres: book.Genres,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Index(book.ID, doc); err != nil {
		return fmt.Errorf("index book %s: %w", book.ID, err)
	}
	return nil
}

// SearchBooks runs a match query against titles and authors and returns
// matching book IDs in relevance order.
func (s *Index) SearchBooks(ctx context.Context, queryString string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	query := bleve.NewMatchQuery(queryString)
	query.SetFuzziness(1)

	req := bleve.NewSearchRequestOptions(query, limit, 0, false)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
