package mock

import (
	"context"

	"github.com/fwojciec/billfetch"
)

var _ billfetch.LinkStrategy = (*LinkStrategy)(nil)

// LinkStrategy is a mock implementation of billfetch.LinkStrategy.
type LinkStrategy struct {
	FindLinksFn func(html string, baseURL string) ([]billfetch.Link, error)
	NameFn      func() string
}

func (s *LinkStrategy) FindLinks(html string, baseURL string) ([]billfetch.Link, error) {
	return s.FindLinksFn(html, baseURL)
}

func (s *LinkStrategy) Name() string {
	return s.NameFn()
}

var _ billfetch.DateExtractor = (*DateExtractor)(nil)

// DateExtractor is a mock implementation of billfetch.DateExtractor.
type DateExtractor struct {
	ExtractFn func(title, url string) *billfetch.YearMonth
}

func (e *DateExtractor) Extract(title, url string) *billfetch.YearMonth {
	return e.ExtractFn(title, url)
}

var _ billfetch.FileStore = (*FileStore)(nil)

// FileStore is a mock implementation of billfetch.FileStore.
type FileStore struct {
	WriteFn func(ctx context.Context, name string, data []byte) (string, error)
}

func (s *FileStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	return s.WriteFn(ctx, name, data)
}
