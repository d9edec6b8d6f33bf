package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/meghashyamc/docsearch/db/kvdb"
	"github.com/meghashyamc/docsearch/db/searchindex"
	"github.com/meghashyamc/docsearch/db/titledb"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/metrics"
	"golang.org/x/sync/singleflight"
)

var ErrIndexNotLoaded = errors.New("search index not loaded")

const defaultLoadTimeout = 30 * time.Second

// Service fetches the search index artifact, reconciles it with the locally
// cached copy and publishes the parsed index for lookups.
type Service struct {
	logger  logger.Logger
	source  Source
	store   ArtifactStore
	titles  TitleIndexer
	metrics *metrics.Metrics
	group   singleflight.Group
	timeout time.Duration

	mu      sync.RWMutex
	current *searchindex.Index
	status  Status
}

// New returns a Service whose loads give up after timeout. A non positive
// timeout uses the default.
func New(logger logger.Logger, source Source, store ArtifactStore, titles TitleIndexer, metrics *metrics.Metrics, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultLoadTimeout
	}
	return &Service{
		logger:  logger,
		source:  source,
		store:   store,
		titles:  titles,
		metrics: metrics,
		timeout: timeout,
	}
}

// Load fetches and publishes the artifact. Concurrent calls share one fetch.
// The shared fetch is detached from any single caller's cancellation and is
// bounded by the service timeout instead.
// On failure the previously published index, if any, stays in place.
func (s *Service) Load(ctx context.Context) (Status, error) {
	v, err, _ := s.group.Do(s.source.Key(), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.load(loadCtx)
	})
	if err != nil {
		return Status{}, err
	}
	return v.(Status), nil
}

// Current returns the published index.
func (s *Service) Current() (*searchindex.Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrIndexNotLoaded
	}
	return s.current, nil
}

func (s *Service) Status() (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Status{}, ErrIndexNotLoaded
	}
	return s.status, nil
}

func (s *Service) load(ctx context.Context) (Status, error) {
	key := s.source.Key()

	cached, err := s.getCachedArtifact(key)
	if err != nil {
		s.logger.Warn("could not read cached search index, ignoring it", "source", key, "err", err.Error())
		cached = nil
	}

	raw, fetchErr := s.source.Fetch(ctx)
	if fetchErr != nil {
		if cached == nil {
			s.logger.Error("failed to fetch search index", "source", key, "err", fetchErr.Error())
			return Status{}, fetchErr
		}

		s.logger.Warn("failed to fetch search index, serving cached copy", "source", key, "fetched_at", cached.FetchedAt, "err", fetchErr.Error())
		idx, err := searchindex.Load(cached.Raw)
		if err != nil {
			s.logger.Error("cached search index is malformed", "source", key, "err", err.Error())
			return Status{}, fmt.Errorf("%w (cached copy unusable: %w)", fetchErr, err)
		}
		return s.publish(idx, OutcomeCacheFallback), nil
	}

	idx, err := searchindex.Load(raw)
	if err != nil {
		s.logger.Error("fetched search index is malformed", "source", key, "err", err.Error())
		return Status{}, err
	}

	checksum := strconv.FormatUint(xxhash.Sum64(raw), 16)
	outcome := OutcomeFetched
	switch {
	case cached == nil:
	case cached.EnvVersion != idx.EnvVersion():
		s.logger.Info("discarding stale cached search index", "source", key, "cached_env_version", cached.EnvVersion, "env_version", idx.EnvVersion())
		outcome = OutcomeStaleDiscarded
	case cached.Checksum != checksum:
		outcome = OutcomeRefreshed
	default:
		outcome = OutcomeUnchanged
	}

	if outcome == OutcomeStaleDiscarded {
		if err := s.store.Delete(kvdb.ArtifactsBucket, key); err != nil {
			s.logger.Warn("failed to discard stale cached search index", "source", key, "err", err.Error())
		}
	}

	if outcome != OutcomeUnchanged {
		record := kvdb.ArtifactRecord{
			EnvVersion: idx.EnvVersion(),
			Checksum:   checksum,
			FetchedAt:  time.Now().UTC(),
			Raw:        raw,
		}
		if err := s.setCachedArtifact(key, record); err != nil {
			s.logger.Warn("failed to cache search index", "source", key, "err", err.Error())
		}
	}

	return s.publish(idx, outcome), nil
}

func (s *Service) publish(idx *searchindex.Index, outcome Outcome) Status {
	documents := idx.Documents()
	pages := make([]titledb.Page, len(documents))
	for i, doc := range documents {
		pages[i] = titledb.Page{
			DocIndex: doc.Index,
			DocName:  doc.DocName,
			Title:    doc.Title,
			Filename: doc.Document,
		}
	}

	// Term lookups do not depend on the title catalog, so a failed rebuild
	// only degrades title search.
	if err := s.titles.Rebuild(pages); err != nil {
		s.logger.Error("failed to rebuild title catalog", "err", err.Error())
	}

	status := Status{
		Source:     s.source.Key(),
		EnvVersion: idx.EnvVersion(),
		Documents:  idx.DocumentCount(),
		Terms:      idx.TermCount(),
		Objects:    idx.ObjectCount(),
		Outcome:    outcome,
		LoadedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.current = idx
	s.status = status
	s.mu.Unlock()

	s.metrics.IndexLoadsTotal.WithLabelValues(string(outcome)).Inc()
	s.metrics.IndexEnvVersion.Set(float64(status.EnvVersion))
	s.metrics.IndexDocuments.Set(float64(status.Documents))
	s.metrics.IndexTerms.Set(float64(status.Terms))

	s.logger.Info("published search index", "source", status.Source, "env_version", status.EnvVersion, "documents", status.Documents, "terms", status.Terms, "outcome", string(outcome))
	return status
}

func (s *Service) getCachedArtifact(key string) (*kvdb.ArtifactRecord, error) {
	value, err := s.store.Get(kvdb.ArtifactsBucket, key)
	if err != nil {
		if errors.Is(err, kvdb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record kvdb.ArtifactRecord
	if err := json.Unmarshal([]byte(value), &record); err != nil {
		s.logger.Error("failed to unmarshal cached search index", "source", key, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal cached search index for %s: %w", key, err)
	}

	return &record, nil
}

func (s *Service) setCachedArtifact(key string, record kvdb.ArtifactRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("failed to marshal cached search index", "source", key, "err", err.Error())
		return fmt.Errorf("failed to marshal cached search index for %s: %w", key, err)
	}

	return s.store.Set(kvdb.ArtifactsBucket, key, string(data))
}
