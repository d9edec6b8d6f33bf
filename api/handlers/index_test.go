package handlers

import (
	"net/http"
	"os"
	"testing"

	"github.com/meghashyamc/docsearch/services/index"
	"github.com/stretchr/testify/require"
)

func TestHandleStatusAndReload(t *testing.T) {
	assert := require.New(t)
	router := setupTestServer(t, assert, "")

	w := makeTestHTTPRequest(router, assert, http.MethodGet, "/status", nil, nil)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())
	status := decodeData[index.Status](assert, w)
	assert.Equal(55, status.EnvVersion)
	assert.Equal(33, status.Documents)
	assert.Equal(index.OutcomeFetched, status.Outcome)

	w = makeTestHTTPRequest(router, assert, http.MethodPost, "/reload", nil, nil)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())
	status = decodeData[index.Status](assert, w)
	assert.Equal(index.OutcomeUnchanged, status.Outcome)
}

func TestHandleReloadAfterArtifactAppears(t *testing.T) {
	assert := require.New(t)
	tempDir := t.TempDir()
	router := setupTestServer(t, assert, tempDir+"/searchindex.js")

	w := makeTestHTTPRequest(router, assert, http.MethodGet, "/status", nil, nil)
	assert.Equal(http.StatusServiceUnavailable, w.Code)

	w = makeTestHTTPRequest(router, assert, http.MethodPost, "/reload", nil, nil)
	assert.Equal(http.StatusBadGateway, w.Code, w.Body.String())

	writeTestArtifact(assert, tempDir, objectsTestArtifact)
	w = makeTestHTTPRequest(router, assert, http.MethodPost, "/reload", nil, nil)
	assert.Equal(http.StatusOK, w.Code, w.Body.String())
	status := decodeData[index.Status](assert, w)
	assert.Equal(2, status.Documents)
	assert.Equal(3, status.Objects)

	assert.NoError(os.WriteFile(tempDir+"/searchindex.js", []byte(`Search.setIndex({envversion:55})`), 0644))
	w = makeTestHTTPRequest(router, assert, http.MethodPost, "/reload", nil, nil)
	assert.Equal(http.StatusBadGateway, w.Code, w.Body.String())

	w = makeTestHTTPRequest(router, assert, http.MethodGet, "/lookup", nil, map[string]string{"term": "load"})
	assert.Equal(http.StatusOK, w.Code, "previously published index should keep serving")
}
