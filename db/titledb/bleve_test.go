package titledb

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/meghashyamc/docsearch/logger"
	"github.com/stretchr/testify/require"
)

var testPages = []Page{
	{DocIndex: 0, DocName: "index", Title: "Welcome to the course", Filename: "index.rst"},
	{DocIndex: 1, DocName: "lessons/L1/intro-numpy", Title: "Introduction to NumPy", Filename: "lessons/L1/intro-numpy.rst"},
	{DocIndex: 2, DocName: "notebooks/L1/numpy", Title: "A few more useful NumPy functions", Filename: "notebooks/L1/numpy.ipynb"},
	{DocIndex: 3, DocName: "lessons/L5/viscous-flows", Title: "Viscous flow down an incline", Filename: "lessons/L5/viscous-flows.rst"},
}

func newTestLogger() logger.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var titleSearchTestCases = []struct {
	name             string
	query            string
	expectedIndices  []int
	expectedTopIndex int
}{
	{
		name:             "SingleWord",
		query:            "numpy",
		expectedIndices:  []int{1, 2},
		expectedTopIndex: -1,
	},
	{
		name:             "Phrase",
		query:            "viscous flow",
		expectedIndices:  []int{3},
		expectedTopIndex: 3,
	},
	{
		name:             "Prefix",
		query:            "incl",
		expectedIndices:  []int{3},
		expectedTopIndex: 3,
	},
	{
		name:             "DocName",
		query:            "index",
		expectedIndices:  []int{0},
		expectedTopIndex: 0,
	},
	{
		name:            "NoMatch",
		query:           "thermodynamics",
		expectedIndices: []int{},
	},
	{
		name:            "EmptyQuery",
		query:           "   ",
		expectedIndices: []int{},
	},
}

func TestSearch(t *testing.T) {
	assert := require.New(t)
	db, err := New(newTestLogger())
	assert.NoError(err)
	defer db.Close()

	assert.NoError(db.Rebuild(testPages))
	count, err := db.GetDocCount()
	assert.NoError(err)
	assert.Equal(uint64(len(testPages)), count)

	for _, testCase := range titleSearchTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			response, err := db.Search(testCase.query, 10, 0)
			assert.NoError(err)

			indices := make([]int, 0, len(response.Results))
			for _, result := range response.Results {
				indices = append(indices, result.DocIndex)
				assert.Equal(testPages[result.DocIndex].Filename, result.Filename)
				assert.Equal(testPages[result.DocIndex].Title, result.Title)
			}
			assert.ElementsMatch(testCase.expectedIndices, indices)
			assert.Equal(uint64(len(testCase.expectedIndices)), response.Total)
			if testCase.expectedTopIndex >= 0 && len(indices) > 0 {
				assert.Equal(testCase.expectedTopIndex, indices[0])
			}
		})
	}
}

func TestRebuildReplacesCatalog(t *testing.T) {
	assert := require.New(t)
	db, err := New(newTestLogger())
	assert.NoError(err)
	defer db.Close()

	assert.NoError(db.Rebuild(testPages))
	assert.NoError(db.Rebuild(testPages[:1]))

	count, err := db.GetDocCount()
	assert.NoError(err)
	assert.Equal(uint64(1), count)

	response, err := db.Search("numpy", 10, 0)
	assert.NoError(err)
	assert.Empty(response.Results)
}

func TestSearchAfterClose(t *testing.T) {
	assert := require.New(t)
	db, err := New(newTestLogger())
	assert.NoError(err)
	assert.NoError(db.Close())

	_, err = db.Search("numpy", 10, 0)
	assert.ErrorIs(err, ErrClosed)
}

func TestSearchRejectsNegativeWindow(t *testing.T) {
	assert := require.New(t)
	db, err := New(newTestLogger())
	assert.NoError(err)
	defer db.Close()
	assert.NoError(db.Rebuild(testPages))

	_, err = db.Search("numpy", 2, -4)
	assert.Error(err)
	_, err = db.Search("numpy", -1, 0)
	assert.Error(err)
}

func TestSearchPanicReleasesLock(t *testing.T) {
	assert := require.New(t)
	db, err := New(newTestLogger())
	assert.NoError(err)
	defer db.Close()
	assert.NoError(db.Rebuild(testPages))

	assert.Panics(func() {
		db.search(bleve.NewSearchRequestOptions(buildSearchQuery("numpy"), 2, -4, false))
	})

	rebuilt := make(chan error, 1)
	go func() {
		rebuilt <- db.Rebuild(testPages[:1])
	}()

	select {
	case err := <-rebuilt:
		assert.NoError(err)
	case <-time.After(3 * time.Second):
		t.Fatal("rebuild blocked on the title index lock")
	}

	response, err := db.Search("welcome", 10, 0)
	assert.NoError(err)
	assert.Len(response.Results, 1)
}

func TestRebuildAfterClose(t *testing.T) {
	assert := require.New(t)
	db, err := New(newTestLogger())
	assert.NoError(err)
	assert.NoError(db.Close())

	assert.ErrorIs(db.Rebuild(testPages), ErrClosed)
	_, err = db.GetDocCount()
	assert.ErrorIs(err, ErrClosed)
	assert.NoError(db.Close())
}
