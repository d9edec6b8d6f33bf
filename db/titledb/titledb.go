package titledb

import "errors"

var ErrClosed = errors.New("title index is closed")

type DB interface {
	Rebuild(pages []Page) error
	Search(queryString string, limit int, offset int) (*Response, error)
	GetDocCount() (uint64, error)
	Close() error
}
