package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meghashyamc/docsearch/db/kvdb"
	"github.com/meghashyamc/docsearch/db/searchindex"
	"github.com/meghashyamc/docsearch/db/titledb"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestLogger() logger.Logger {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func artifact(envVersion int, title string) string {
	return fmt.Sprintf(`Search.setIndex({docnames:["index","guide"],envversion:%d,filenames:["index.rst","guide.rst"],objects:{},objnames:{},objtypes:{},terms:{guid:1,welcom:[0,1]},titles:["Welcome","%s"],titleterms:{guid:1}})`, envVersion, title)
}

type testLoader struct {
	service *Service
	store   *kvdb.BoltDB
	titles  *titledb.BleveDB
	metrics *metrics.Metrics
}

func newTestLoader(assert *require.Assertions, tempDir string, source Source) *testLoader {
	testLogger := newTestLogger()

	store, err := kvdb.Open(testLogger, filepath.Join(tempDir, "kv.db"))
	assert.NoError(err, "could not open kv database")
	titles, err := titledb.New(testLogger)
	assert.NoError(err, "could not create title database")
	m := metrics.New()

	return &testLoader{
		service: New(testLogger, source, store, titles, m, 2*time.Second),
		store:   store,
		titles:  titles,
		metrics: m,
	}
}

func (l *testLoader) close() {
	l.store.Close()
	l.titles.Close()
}

func (l *testLoader) cachedRecord(assert *require.Assertions, key string) kvdb.ArtifactRecord {
	value, err := l.store.Get(kvdb.ArtifactsBucket, key)
	assert.NoError(err, "artifact should be cached")
	var record kvdb.ArtifactRecord
	assert.NoError(json.Unmarshal([]byte(value), &record))
	return record
}

func writeArtifact(assert *require.Assertions, path string, content string) {
	assert.NoError(os.WriteFile(path, []byte(content), 0644))
}

func TestLoadReconcilesWithCache(t *testing.T) {
	assert := require.New(t)
	tempDir := t.TempDir()
	artifactPath := filepath.Join(tempDir, "searchindex.js")

	source, err := NewSource(artifactPath, time.Second)
	assert.NoError(err)
	loader := newTestLoader(assert, tempDir, source)
	defer loader.close()
	ctx := context.Background()

	_, err = loader.service.Current()
	assert.ErrorIs(err, ErrIndexNotLoaded)
	_, err = loader.service.Status()
	assert.ErrorIs(err, ErrIndexNotLoaded)

	writeArtifact(assert, artifactPath, artifact(55, "User guide"))
	status, err := loader.service.Load(ctx)
	assert.NoError(err)
	assert.Equal(OutcomeFetched, status.Outcome)
	assert.Equal(55, status.EnvVersion)
	assert.Equal(2, status.Documents)
	assert.Equal(2, status.Terms)
	assert.Equal(55, loader.cachedRecord(assert, source.Key()).EnvVersion)

	idx, err := loader.service.Current()
	assert.NoError(err)
	refs := idx.Lookup("guid")
	assert.Len(refs, 1)
	assert.Equal("guide.rst", refs[0].Document)

	count, err := loader.titles.GetDocCount()
	assert.NoError(err)
	assert.Equal(uint64(2), count)

	status, err = loader.service.Load(ctx)
	assert.NoError(err)
	assert.Equal(OutcomeUnchanged, status.Outcome)

	writeArtifact(assert, artifactPath, artifact(55, "Users guide"))
	status, err = loader.service.Load(ctx)
	assert.NoError(err)
	assert.Equal(OutcomeRefreshed, status.Outcome)

	writeArtifact(assert, artifactPath, artifact(56, "Users guide"))
	status, err = loader.service.Load(ctx)
	assert.NoError(err)
	assert.Equal(OutcomeStaleDiscarded, status.Outcome)
	assert.Equal(56, status.EnvVersion)
	assert.Equal(56, loader.cachedRecord(assert, source.Key()).EnvVersion)

	assert.NoError(os.Remove(artifactPath))
	status, err = loader.service.Load(ctx)
	assert.NoError(err, "cached copy should be served when the fetch fails")
	assert.Equal(OutcomeCacheFallback, status.Outcome)
	assert.Equal(56, status.EnvVersion)

	assert.Equal(1.0, testutil.ToFloat64(loader.metrics.IndexLoadsTotal.WithLabelValues(string(OutcomeStaleDiscarded))))
	assert.Equal(56.0, testutil.ToFloat64(loader.metrics.IndexEnvVersion))
}

func TestLoadFailsWithoutCache(t *testing.T) {
	assert := require.New(t)
	tempDir := t.TempDir()

	source, err := NewSource(filepath.Join(tempDir, "missing.js"), time.Second)
	assert.NoError(err)
	loader := newTestLoader(assert, tempDir, source)
	defer loader.close()

	_, err = loader.service.Load(context.Background())
	assert.ErrorIs(err, ErrFetchFailed)

	_, err = loader.service.Current()
	assert.ErrorIs(err, ErrIndexNotLoaded)
}

func TestLoadMalformedKeepsPublishedIndex(t *testing.T) {
	assert := require.New(t)
	tempDir := t.TempDir()
	artifactPath := filepath.Join(tempDir, "searchindex.js")

	source, err := NewSource(artifactPath, time.Second)
	assert.NoError(err)
	loader := newTestLoader(assert, tempDir, source)
	defer loader.close()
	ctx := context.Background()

	writeArtifact(assert, artifactPath, artifact(55, "User guide"))
	_, err = loader.service.Load(ctx)
	assert.NoError(err)

	writeArtifact(assert, artifactPath, `Search.setIndex({filenames:[],envversion:55})`)
	_, err = loader.service.Load(ctx)
	assert.ErrorIs(err, searchindex.ErrMalformedIndex)

	idx, err := loader.service.Current()
	assert.NoError(err)
	assert.Equal(2, idx.DocumentCount())
	assert.Equal(55, loader.cachedRecord(assert, source.Key()).EnvVersion)
}

func TestHTTPSource(t *testing.T) {
	assert := require.New(t)
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/javascript")
		fmt.Fprint(w, artifact(55, "User guide"))
	}))
	defer server.Close()

	source, err := NewSource(server.URL+"/searchindex.js", time.Second)
	assert.NoError(err)
	assert.IsType(&HTTPSource{}, source)
	assert.Equal(server.URL+"/searchindex.js", source.Key())

	loader := newTestLoader(assert, t.TempDir(), source)
	defer loader.close()
	ctx := context.Background()

	status, err := loader.service.Load(ctx)
	assert.NoError(err)
	assert.Equal(OutcomeFetched, status.Outcome)

	failing.Store(true)
	_, err = source.Fetch(ctx)
	assert.ErrorIs(err, ErrFetchFailed)

	status, err = loader.service.Load(ctx)
	assert.NoError(err)
	assert.Equal(OutcomeCacheFallback, status.Outcome)
}

func TestHTTPSourceRejectsOversizedArtifact(t *testing.T) {
	assert := require.New(t)
	body := artifact(55, "User guide")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer server.Close()

	source := &HTTPSource{url: server.URL, client: server.Client(), maxSize: int64(len(body)) - 1}
	_, err := source.Fetch(context.Background())
	assert.ErrorIs(err, ErrFetchFailed)
	assert.ErrorContains(err, "exceeds")
	assert.NotErrorIs(err, searchindex.ErrMalformedIndex)

	source.maxSize = int64(len(body))
	raw, err := source.Fetch(context.Background())
	assert.NoError(err)
	assert.Equal(body, string(raw))
}

func TestLoadOutlivesCancelledCaller(t *testing.T) {
	assert := require.New(t)
	tempDir := t.TempDir()
	artifactPath := filepath.Join(tempDir, "searchindex.js")
	writeArtifact(assert, artifactPath, artifact(55, "User guide"))

	source, err := NewSource(artifactPath, time.Second)
	assert.NoError(err)
	loader := newTestLoader(assert, tempDir, source)
	defer loader.close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := loader.service.Load(ctx)
	assert.NoError(err, "a cancelled caller should not cancel the shared load")
	assert.Equal(OutcomeFetched, status.Outcome)
}

func TestNewSource(t *testing.T) {
	assert := require.New(t)

	_, err := NewSource("  ", time.Second)
	assert.Error(err)

	source, err := NewSource("relative/searchindex.js", time.Second)
	assert.NoError(err)
	assert.IsType(&FileSource{}, source)
	assert.True(filepath.IsAbs(source.Key()))
}
