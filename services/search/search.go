package search

import (
	"strings"

	"github.com/meghashyamc/docsearch/db/searchindex"
	"github.com/meghashyamc/docsearch/db/titledb"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/metrics"
)

// IndexProvider hands out the currently published search index.
type IndexProvider interface {
	Current() (*searchindex.Index, error)
}

type TitleSearcher interface {
	Search(queryString string, limit int, offset int) (*titledb.Response, error)
}

type Service struct {
	logger  logger.Logger
	indexes IndexProvider
	titles  TitleSearcher
	metrics *metrics.Metrics
}

func New(logger logger.Logger, indexes IndexProvider, titles TitleSearcher, metrics *metrics.Metrics) *Service {
	return &Service{
		logger:  logger,
		indexes: indexes,
		titles:  titles,
		metrics: metrics,
	}
}

func (s *Service) Lookup(term string) ([]searchindex.DocumentRef, error) {
	idx, err := s.indexes.Current()
	if err != nil {
		s.metrics.ObserveLookup(metrics.LookupKindTerm, 0, err)
		return nil, err
	}

	refs := idx.Lookup(term)
	s.metrics.ObserveLookup(metrics.LookupKindTerm, len(refs), nil)
	s.logger.Debug("looked up term", "term", term, "results", len(refs))
	return refs, nil
}

// LookupAll returns the documents matching every term.
func (s *Service) LookupAll(terms []string) ([]searchindex.DocumentRef, error) {
	idx, err := s.indexes.Current()
	if err != nil {
		s.metrics.ObserveLookup(metrics.LookupKindTerms, 0, err)
		return nil, err
	}

	refs := idx.LookupAll(terms)
	s.metrics.ObserveLookup(metrics.LookupKindTerms, len(refs), nil)
	s.logger.Debug("looked up terms", "terms", strings.Join(terms, ","), "results", len(refs))
	return refs, nil
}

func (s *Service) Resolve(docIndex int) (string, error) {
	idx, err := s.indexes.Current()
	if err != nil {
		return "", err
	}
	return idx.Resolve(docIndex)
}

func (s *Service) Document(docIndex int) (searchindex.DocumentRef, error) {
	idx, err := s.indexes.Current()
	if err != nil {
		return searchindex.DocumentRef{}, err
	}

	doc, err := idx.Document(docIndex)
	if err != nil {
		s.logger.Warn("document index out of range", "index", docIndex, "documents", idx.DocumentCount())
		return searchindex.DocumentRef{}, err
	}
	return doc, nil
}

func (s *Service) FindObjects(name string) ([]searchindex.ObjectRef, error) {
	idx, err := s.indexes.Current()
	if err != nil {
		s.metrics.ObserveLookup(metrics.LookupKindObject, 0, err)
		return nil, err
	}

	refs := idx.FindObjects(name)
	s.metrics.ObserveLookup(metrics.LookupKindObject, len(refs), nil)
	return refs, nil
}

func (s *Service) SearchTitles(queryString string, limit int, offset int) (*titledb.Response, error) {
	if _, err := s.indexes.Current(); err != nil {
		s.metrics.ObserveLookup(metrics.LookupKindTitle, 0, err)
		return nil, err
	}

	response, err := s.titles.Search(queryString, limit, offset)
	if err != nil {
		s.logger.Error("title search failed", "query", queryString, "err", err.Error())
		s.metrics.ObserveLookup(metrics.LookupKindTitle, 0, err)
		return nil, err
	}

	s.metrics.ObserveLookup(metrics.LookupKindTitle, len(response.Results), nil)
	return response, nil
}
