// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/docsearch/config"
	"github.com/meghashyamc/docsearch/db/kvdb"
	"github.com/meghashyamc/docsearch/db/titledb"
	"github.com/meghashyamc/docsearch/logger"
	"github.com/meghashyamc/docsearch/metrics"
	"github.com/meghashyamc/docsearch/services/index"
	"github.com/meghashyamc/docsearch/services/search"
	"github.com/meghashyamc/docsearch/validation"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	name           string
	endpoint       string
	queryParams    map[string]string
	expectedStatus int
	expectedIndex  []int
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

// setupTestServer wires the handlers against the artifact at artifactPath.
// An empty artifactPath uses the source from config.test.yaml.
func setupTestServer(t *testing.T, assert *require.Assertions, artifactPath string) *gin.Engine {

	t.Setenv("ENV", "test")
	t.Setenv("KVDB_PATH", filepath.Join(t.TempDir(), "kv.db"))
	if artifactPath != "" {
		t.Setenv("INDEX_SOURCE", artifactPath)
	}

	cfg, err := config.Load("")
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()

	kvDB, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")
	titleDB, err := titledb.New(testLogger)
	assert.NoError(err, "could not create title database")
	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")
	source, err := index.NewSource(cfg.GetIndexSource(), cfg.GetIndexFetchTimeout())
	assert.NoError(err, "could not create search index source")

	m := metrics.New()
	indexService := index.New(testLogger, source, kvDB, titleDB, m, cfg.GetIndexFetchTimeout())
	// a failed first load is part of what some tests exercise
	indexService.Load(context.Background())
	searchService := search.New(testLogger, indexService, titleDB, m)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupIndex(router, testLogger, indexService)
	SetupLookup(router, testLogger, searchService, validator)
	SetupDocuments(router, testLogger, searchService)
	SetupObjects(router, testLogger, searchService, validator)
	SetupTitles(router, testLogger, searchService, validator)

	t.Cleanup(func() {
		assert.NoError(titleDB.Close(), "could not close title database")
		assert.NoError(kvDB.Close(), "could not close kv database")
	})

	return router
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	if len(queryParams) > 0 {
		query := req.URL.Query()
		for key, value := range queryParams {
			query.Set(key, value)
		}
		req.URL.RawQuery = query.Encode()
	}

	slog.Info("Making test request", "method", method, "endpoint", req.URL.String(), "body", string(jsonBody))

	router.ServeHTTP(w, req)

	return w
}

func decodeData[T any](assert *require.Assertions, w *httptest.ResponseRecorder) T {
	type envelope struct {
		Data   T        `json:"data"`
		Errors []string `json:"errors"`
	}
	var decoded envelope
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &decoded), "could not unmarshal response %s", w.Body.String())
	return decoded.Data
}

func writeTestArtifact(assert *require.Assertions, dir string, content string) string {
	path := filepath.Join(dir, "searchindex.js")
	assert.NoError(os.WriteFile(path, []byte(content), 0644), "could not write test artifact")
	return path
}
