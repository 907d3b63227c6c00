package tinydb

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Table is the single table of a database file. The root node always lives on page 0.
type Table struct {
	pager     Pager
	maxICells uint32
	logger    *zap.Logger
	metrics   *Metrics
}

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string, opts ...Option) (*Table, error) {
	dbFile, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("%w: open db file: %w", ErrIO, err)
	}

	aPager, err := NewPager(dbFile, opts...)
	if err != nil {
		dbFile.Close()
		return nil, err
	}

	aTable, err := NewTable(ctx, aPager, opts...)
	if err != nil {
		dbFile.Close()
		return nil, err
	}

	aTable.logger.Sugar().With(
		"path", path,
		"total_pages", int(aPager.TotalPages()),
	).Debug("opened table")

	return aTable, nil
}

// NewTable binds a table to a pager. A brand new database gets an empty root leaf.
func NewTable(ctx context.Context, pager Pager, opts ...Option) (*Table, error) {
	o := newOptions(opts...)

	aTable := &Table{
		pager:     pager,
		maxICells: o.internalMaxCells,
		logger:    o.logger,
		metrics:   o.metrics,
	}

	if pager.TotalPages() == 0 {
		aRootPage, err := pager.GetPage(ctx, RootPageIdx)
		if err != nil {
			return nil, fmt.Errorf("init root page: %w", err)
		}
		aRootLeaf := aRootPage.InitializeLeaf()
		aRootLeaf.Header.IsRoot = true
	}

	return aTable, nil
}

// Close flushes all resident pages and releases the file.
func (t *Table) Close(ctx context.Context) error {
	return t.pager.Close(ctx)
}

// Find returns a cursor at the cell holding key, or at the slot where
// key would be inserted if it does not exist.
func (t *Table) Find(ctx context.Context, key uint32) (*Cursor, error) {
	pageIdx := RootPageIdx
	for {
		aPage, err := t.pager.GetPage(ctx, pageIdx)
		if err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}

		if aPage.LeafNode != nil {
			return t.leafNodeFind(pageIdx, aPage.LeafNode, key), nil
		}
		if aPage.InternalNode == nil {
			return nil, fmt.Errorf("find: %w: page %d is not initialised", ErrOutOfBounds, pageIdx)
		}

		childIdx := aPage.InternalNode.IndexOfChild(key)
		pageIdx, err = aPage.InternalNode.Child(childIdx)
		if err != nil {
			return nil, fmt.Errorf("find: page %d: %w", aPage.Index, err)
		}
	}
}

func (t *Table) leafNodeFind(pageIdx PageIndex, aLeaf *LeafNode, key uint32) *Cursor {
	cellIdx := aLeaf.IndexOfKey(key)
	return &Cursor{
		Table:      t,
		PageIdx:    pageIdx,
		CellIdx:    cellIdx,
		EndOfTable: cellIdx >= aLeaf.Header.Cells && !aLeaf.Header.NextLeaf.Valid,
	}
}

// Start returns a cursor at the lowest key, flagged end of table when the table is empty.
func (t *Table) Start(ctx context.Context) (*Cursor, error) {
	aCursor, err := t.Find(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	aPage, err := t.pager.GetPage(ctx, aCursor.PageIdx)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	aCursor.EndOfTable = aPage.LeafNode.Header.Cells == 0

	return aCursor, nil
}

// Get returns the record stored under key.
func (t *Table) Get(ctx context.Context, key uint32) (Record, bool, error) {
	aCursor, err := t.Find(ctx, key)
	if err != nil {
		return Record{}, false, err
	}

	aPage, err := t.pager.GetPage(ctx, aCursor.PageIdx)
	if err != nil {
		return Record{}, false, fmt.Errorf("get: %w", err)
	}
	if aCursor.CellIdx >= aPage.LeafNode.Header.Cells || aPage.LeafNode.Cells[aCursor.CellIdx].Key != key {
		return Record{}, false, nil
	}

	aRecord, err := aPage.LeafNode.Cells[aCursor.CellIdx].Record()
	if err != nil {
		return Record{}, false, err
	}
	return aRecord, true, nil
}

// Scan calls fn for every record in key order until fn returns an error.
func (t *Table) Scan(ctx context.Context, fn func(Record) error) error {
	aCursor, err := t.Start(ctx)
	if err != nil {
		return err
	}

	for !aCursor.IsEnd() {
		aRecord, err := aCursor.Record(ctx)
		if err != nil {
			return err
		}
		if err := fn(aRecord); err != nil {
			return err
		}
		if err := aCursor.Advance(ctx); err != nil {
			return err
		}
	}

	return nil
}

// GetMaxKey returns the largest key in the subtree rooted at the page.
func (t *Table) GetMaxKey(ctx context.Context, aPage *Page) (uint32, error) {
	for aPage.InternalNode != nil {
		if !aPage.InternalNode.Header.RightChild.Valid {
			return 0, fmt.Errorf("get max key: %w: page %d has no right child", ErrOutOfBounds, aPage.Index)
		}

		var err error
		aPage, err = t.pager.GetPage(ctx, aPage.InternalNode.Header.RightChild.Index)
		if err != nil {
			return 0, fmt.Errorf("get max key: %w", err)
		}
	}

	if aPage.LeafNode == nil {
		return 0, fmt.Errorf("get max key: %w: page %d is not initialised", ErrOutOfBounds, aPage.Index)
	}
	maxKey, ok := aPage.LeafNode.MaxKey()
	if !ok {
		return 0, fmt.Errorf("get max key: %w: leaf page %d has no cells", ErrOutOfBounds, aPage.Index)
	}
	return maxKey, nil
}

// newPage allocates the next unused page.
func (t *Table) newPage(ctx context.Context) (*Page, error) {
	pageIdx := PageIndex(t.pager.TotalPages())
	if uint32(pageIdx) >= t.pager.MaxPages() {
		return nil, fmt.Errorf("new page: %w", ErrTableFull)
	}
	return t.pager.GetPage(ctx, pageIdx)
}
