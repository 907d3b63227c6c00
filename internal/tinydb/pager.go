package tinydb

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type DBFile interface {
	io.ReadSeeker
	io.ReaderAt
	io.WriterAt
	io.Closer
}

type pagerImpl struct {
	maxPages         uint32
	internalMaxCells uint32
	totalPages       uint32 // total number of pages, also the next unused page index

	// pages is indexed by page number, nil entries were never loaded.
	// A loaded page stays resident until Close.
	pages []*Page

	file      DBFile
	fileSize  int64
	filePages uint32 // pages present in the file when it was opened

	logger  *zap.Logger
	metrics *Metrics
}

// NewPager sizes the database file and prepares an empty page cache.
func NewPager(file DBFile, opts ...Option) (*pagerImpl, error) {
	o := newOptions(opts...)

	aPager := &pagerImpl{
		maxPages:         o.maxPages,
		internalMaxCells: o.internalMaxCells,
		file:             file,
		logger:           o.logger,
		metrics:          o.metrics,
	}

	fileSize, err := aPager.file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: seek end of db file: %w", ErrIO, err)
	}
	aPager.fileSize = fileSize

	// Basic check to verify file size is a multiple of page size (4096B)
	if fileSize%PageSize != 0 {
		return nil, fmt.Errorf("%w: db file size is not divisible by page size: %d", ErrCorruptFile, fileSize)
	}

	totalPages := fileSize / PageSize
	if totalPages > int64(aPager.maxPages) {
		return nil, fmt.Errorf("%w: db file has %d pages, max pages is %d", ErrCorruptFile, totalPages, aPager.maxPages)
	}
	aPager.totalPages = uint32(totalPages)
	aPager.filePages = uint32(totalPages)
	aPager.pages = make([]*Page, 0, aPager.totalPages)

	return aPager, nil
}

func (p *pagerImpl) TotalPages() uint32 {
	return p.totalPages
}

func (p *pagerImpl) MaxPages() uint32 {
	return p.maxPages
}

// GetPage returns a resident page, loading it from the file on a cache miss.
// Requesting a page past the end of the database extends it, the new page
// is returned uninitialised.
func (p *pagerImpl) GetPage(ctx context.Context, pageIdx PageIndex) (*Page, error) {
	if uint32(pageIdx) >= p.maxPages {
		return nil, fmt.Errorf("%w: page index %d reached limit of max pages %d", ErrOutOfBounds, pageIdx, p.maxPages)
	}

	if int(pageIdx) < len(p.pages) && p.pages[pageIdx] != nil {
		return p.pages[pageIdx], nil
	}

	// Cache miss, either load the page from file or start a fresh one
	var aPage *Page
	if uint32(pageIdx) < p.filePages {
		buf := make([]byte, PageSize)
		n, err := p.file.ReadAt(buf, int64(pageIdx)*PageSize)
		if err != nil && !(errors.Is(err, io.EOF) && n == PageSize) {
			return nil, fmt.Errorf("%w: read page %d: %w", ErrIO, pageIdx, err)
		}

		aPage, err = UnmarshalPage(pageIdx, buf, p.internalMaxCells)
		if err != nil {
			return nil, err
		}
		p.metrics.PagesLoaded.Inc()

		p.logger.Sugar().With(
			"page_index", int(pageIdx),
			"internal", aPage.InternalNode != nil,
		).Debug("loaded page")
	} else {
		aPage = &Page{Index: pageIdx}
	}

	// Extend the cache so that slice index = page index
	for len(p.pages) < int(pageIdx)+1 {
		p.pages = append(p.pages, nil)
	}
	p.pages[pageIdx] = aPage

	if uint32(pageIdx) >= p.totalPages {
		p.metrics.PagesAllocated.Add(float64(uint32(pageIdx) + 1 - p.totalPages))
		p.totalPages = uint32(pageIdx) + 1
	}

	return aPage, nil
}

// Flush writes exactly one page worth of bytes at the page's offset.
func (p *pagerImpl) Flush(ctx context.Context, pageIdx PageIndex) error {
	if int(pageIdx) >= len(p.pages) || p.pages[pageIdx] == nil {
		return fmt.Errorf("%w: flushing page %d which was never loaded", ErrOutOfBounds, pageIdx)
	}

	buf, err := p.pages[pageIdx].Marshal(make([]byte, PageSize))
	if err != nil {
		return fmt.Errorf("flush page %d: %w", pageIdx, err)
	}

	offset := int64(pageIdx) * PageSize
	if _, err := p.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("%w: write page %d: %w", ErrIO, pageIdx, err)
	}
	if end := offset + PageSize; end > p.fileSize {
		p.fileSize = end
	}
	p.metrics.PagesFlushed.Inc()

	return nil
}

// Close flushes every resident page, closes the file and drops the cache.
func (p *pagerImpl) Close(ctx context.Context) error {
	var err error
	for pageIdx := uint32(0); pageIdx < p.totalPages; pageIdx++ {
		if int(pageIdx) >= len(p.pages) || p.pages[pageIdx] == nil {
			continue
		}
		err = multierr.Append(err, p.Flush(ctx, PageIndex(pageIdx)))
	}

	if cerr := p.file.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: close db file: %w", ErrIO, cerr))
	}
	p.pages = nil

	return err
}
