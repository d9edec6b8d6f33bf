package index

import (
	"time"

	"github.com/meghashyamc/docsearch/db/titledb"
)

// ArtifactStore keeps the last fetched artifact per source.
type ArtifactStore interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
}

// TitleIndexer is rebuilt with the page titles of every published index.
type TitleIndexer interface {
	Rebuild(pages []titledb.Page) error
}

type Outcome string

const (
	// OutcomeFetched is a fresh artifact with no previous cached copy.
	OutcomeFetched Outcome = "fetched"
	// OutcomeUnchanged means the fetched artifact matched the cached copy.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeRefreshed means the envversion matched but the content changed.
	OutcomeRefreshed Outcome = "refreshed"
	// OutcomeStaleDiscarded means the cached copy had another envversion.
	OutcomeStaleDiscarded Outcome = "stale_discarded"
	// OutcomeCacheFallback means the fetch failed and the cached copy is served.
	OutcomeCacheFallback Outcome = "cache_fallback"
)

type Status struct {
	Source     string    `json:"source"`
	EnvVersion int       `json:"env_version"`
	Documents  int       `json:"documents"`
	Terms      int       `json:"terms"`
	Objects    int       `json:"objects"`
	Outcome    Outcome   `json:"outcome"`
	LoadedAt   time.Time `json:"loaded_at"`
}
