package titledb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/docsearch/logger"
)

const IndexingBatchSize = 100

const (
	indexFieldDocIndex = "doc_index"
	indexFieldDocName  = "docname"
	indexFieldTitle    = "title"
	indexFieldFilename = "filename"
)

// BleveDB is an in-memory bleve index over page titles. It is rebuilt from
// scratch whenever a new search index artifact is published.
type BleveDB struct {
	logger logger.Logger
	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

func New(logger logger.Logger) (*BleveDB, error) {
	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		logger.Error("could not create title index", "err", err.Error())
		return nil, err
	}
	return &BleveDB{logger: logger, index: index}, nil
}

func (b *BleveDB) Rebuild(pages []Page) error {
	if b.isClosed() {
		return ErrClosed
	}

	index, err := bleve.NewMemOnly(createIndexMapping())
	if err != nil {
		b.logger.Error("could not create title index", "err", err.Error())
		return err
	}

	batch := index.NewBatch()
	for i, page := range pages {
		if err := batch.Index(strconv.Itoa(page.DocIndex), page); err != nil {
			b.logger.Error("could not index page title", "docname", page.DocName, "err", err.Error())
			index.Close()
			return err
		}

		// Execute batch when it reaches the batch size
		if (i+1)%IndexingBatchSize == 0 {
			if err := index.Batch(batch); err != nil {
				index.Close()
				return err
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			b.logger.Error("could not index page titles", "err", err.Error())
			index.Close()
			return err
		}
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		index.Close()
		return ErrClosed
	}
	previous := b.index
	b.index = index
	b.mu.Unlock()

	if previous != nil {
		if err := previous.Close(); err != nil {
			b.logger.Warn("could not close previous title index", "err", err.Error())
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Title field - analyzed for full-text search
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	// Docname and filename fields - not analyzed (exact match)
	docNameFieldMapping := bleve.NewTextFieldMapping()
	docNameFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldDocName, docNameFieldMapping)

	filenameFieldMapping := bleve.NewTextFieldMapping()
	filenameFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldFilename, filenameFieldMapping)

	docIndexFieldMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt(indexFieldDocIndex, docIndexFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (b *BleveDB) Search(queryString string, limit int, offset int) (*Response, error) {
	start := time.Now()

	queryString = strings.TrimSpace(queryString)
	if queryString == "" {
		return &Response{Results: []Result{}, SearchTime: time.Since(start).String()}, nil
	}

	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("title search window must not be negative, got limit %d offset %d", limit, offset)
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(queryString), limit, offset, false)
	searchRequest.Fields = []string{indexFieldDocIndex, indexFieldDocName, indexFieldTitle, indexFieldFilename}

	searchResult, err := b.search(searchRequest)
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return nil, err
		}
		b.logger.Error("title search failed", "err", err.Error())
		return nil, fmt.Errorf("title search failed: %w", err)
	}

	results := make([]Result, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		result := Result{Score: hit.Score}

		if docIndex, ok := hit.Fields[indexFieldDocIndex].(float64); ok {
			result.DocIndex = int(docIndex)
		}
		if docName, ok := hit.Fields[indexFieldDocName].(string); ok {
			result.DocName = docName
		}
		if title, ok := hit.Fields[indexFieldTitle].(string); ok {
			result.Title = title
		}
		if filename, ok := hit.Fields[indexFieldFilename].(string); ok {
			result.Filename = filename
		}

		results[i] = result
	}

	return &Response{
		Results:    results,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: time.Since(start).String(),
	}, nil
}

func (b *BleveDB) search(searchRequest *bleve.SearchRequest) (*bleve.SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil {
		return nil, ErrClosed
	}
	return b.index.Search(searchRequest)
}

func (b *BleveDB) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func buildSearchQuery(queryString string) query.Query {

	const (
		boostForTitle        = 3.0
		boostForPhraseMatch  = 5.0
		boostForDocName      = 2.0
		boostForPartialMatch = 1.5
	)

	lowered := strings.ToLower(queryString)

	disjunctQuery := bleve.NewDisjunctionQuery()

	titleQuery := bleve.NewMatchQuery(queryString)
	titleQuery.SetField(indexFieldTitle)
	titleQuery.SetBoost(boostForTitle)
	disjunctQuery.AddQuery(titleQuery)

	phraseQuery := bleve.NewMatchPhraseQuery(queryString)
	phraseQuery.SetField(indexFieldTitle)
	phraseQuery.SetBoost(boostForPhraseMatch)
	disjunctQuery.AddQuery(phraseQuery)

	docNameQuery := bleve.NewTermQuery(queryString)
	docNameQuery.SetField(indexFieldDocName)
	docNameQuery.SetBoost(boostForDocName)
	disjunctQuery.AddQuery(docNameQuery)

	if len(lowered) > 2 && !strings.ContainsAny(lowered, " \t") {
		prefixQuery := bleve.NewPrefixQuery(lowered)
		prefixQuery.SetField(indexFieldTitle)
		prefixQuery.SetBoost(boostForPartialMatch)
		disjunctQuery.AddQuery(prefixQuery)
	}

	return disjunctQuery
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.index == nil {
		return 0, ErrClosed
	}
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close title index", "err", err.Error())
			return err
		}
		b.index = nil
	}
	return nil
}
