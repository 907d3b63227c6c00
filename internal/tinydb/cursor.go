package tinydb

import (
	"context"
	"fmt"
)

// Cursor is a position in the table. It must be re-acquired after any insert
// because a split may move the cell it points at.
type Cursor struct {
	Table      *Table
	PageIdx    PageIndex
	CellIdx    uint32
	EndOfTable bool
}

func (c *Cursor) IsEnd() bool {
	return c.EndOfTable
}

func (c *Cursor) leaf(ctx context.Context) (*LeafNode, error) {
	aPage, err := c.Table.pager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return nil, err
	}
	if aPage.LeafNode == nil {
		return nil, fmt.Errorf("%w: cursor page %d is not a leaf node", ErrOutOfBounds, c.PageIdx)
	}
	return aPage.LeafNode, nil
}

// Value returns the serialized record under the cursor.
func (c *Cursor) Value(ctx context.Context) ([]byte, error) {
	if c.EndOfTable {
		return nil, fmt.Errorf("cursor value: %w: end of table", ErrOutOfBounds)
	}
	aLeaf, err := c.leaf(ctx)
	if err != nil {
		return nil, fmt.Errorf("cursor value: %w", err)
	}
	return aLeaf.Value(c.CellIdx)
}

func (c *Cursor) Key(ctx context.Context) (uint32, error) {
	if c.EndOfTable {
		return 0, fmt.Errorf("cursor key: %w: end of table", ErrOutOfBounds)
	}
	aLeaf, err := c.leaf(ctx)
	if err != nil {
		return 0, fmt.Errorf("cursor key: %w", err)
	}
	return aLeaf.Key(c.CellIdx)
}

// Record decodes the value under the cursor.
func (c *Cursor) Record(ctx context.Context) (Record, error) {
	value, err := c.Value(ctx)
	if err != nil {
		return Record{}, err
	}
	var aRecord Record
	if err := UnmarshalRecord(value, &aRecord); err != nil {
		return Record{}, err
	}
	return aRecord, nil
}

// Advance moves to the next cell, following the next leaf pointer at the end of a leaf.
func (c *Cursor) Advance(ctx context.Context) error {
	if c.EndOfTable {
		return nil
	}
	aLeaf, err := c.leaf(ctx)
	if err != nil {
		return fmt.Errorf("cursor advance: %w", err)
	}

	c.CellIdx += 1
	if c.CellIdx < aLeaf.Header.Cells {
		return nil
	}

	// If there is no leaf page to the right, set end of table flag and return
	if !aLeaf.Header.NextLeaf.Valid {
		c.EndOfTable = true
		return nil
	}

	// Otherwise, move the cursor to the next leaf page
	c.PageIdx = aLeaf.Header.NextLeaf.Index
	c.CellIdx = 0

	return nil
}

// LeafNodeInsert writes the cell at the cursor, splitting the leaf when it is full.
func (c *Cursor) LeafNodeInsert(ctx context.Context, key uint32, aRecord *Record) error {
	aCell, err := newCell(key, aRecord)
	if err != nil {
		return err
	}

	aPage, err := c.Table.pager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return fmt.Errorf("leaf node insert: %w", err)
	}
	if aPage.LeafNode == nil {
		return fmt.Errorf("leaf node insert: %w: page %d is not a leaf node, key %d", ErrOutOfBounds, c.PageIdx, key)
	}
	aLeaf := aPage.LeafNode

	if aLeaf.IsFull() {
		return c.LeafNodeSplitInsert(ctx, aCell)
	}

	if c.CellIdx > aLeaf.Header.Cells {
		return fmt.Errorf("leaf node insert: %w: cell %d of leaf with %d cells", ErrOutOfBounds, c.CellIdx, aLeaf.Header.Cells)
	}

	// Make room for the new cell
	for i := aLeaf.Header.Cells; i > c.CellIdx; i-- {
		aLeaf.Cells[i] = aLeaf.Cells[i-1]
	}
	aLeaf.Cells[c.CellIdx] = aCell
	aLeaf.Header.Cells += 1

	return nil
}

// LeafNodeSplitInsert creates a new leaf and moves the upper half of the
// cells over, inserting the new cell into whichever half it belongs to.
// Then it updates the parent or creates a new root.
func (c *Cursor) LeafNodeSplitInsert(ctx context.Context, aCell Cell) error {
	aTable := c.Table

	aSplitPage, err := aTable.pager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return fmt.Errorf("leaf node split insert: %w", err)
	}
	aSplitLeaf := aSplitPage.LeafNode

	aNewPage, err := aTable.newPage(ctx)
	if err != nil {
		return fmt.Errorf("leaf node split insert: %w", err)
	}
	aNewLeaf := aNewPage.InitializeLeaf()

	aTable.logger.Sugar().With(
		"key", int(aCell.Key),
		"page_index", int(aSplitPage.Index),
		"new_page_index", int(aNewPage.Index),
	).Debug("leaf node split insert")

	aNewLeaf.Header.Parent = aSplitLeaf.Header.Parent
	aNewLeaf.Header.NextLeaf = aSplitLeaf.Header.NextLeaf
	aSplitLeaf.Header.NextLeaf = RefTo(aNewPage.Index)

	// All existing keys plus the new key are divided between the old (left)
	// and new (right) nodes. Starting from the right, move each cell to its
	// final position, a cell is never overwritten before it has been moved.
	var (
		maxCells   = aSplitLeaf.MaxCells()
		rightCount = (maxCells + 2) / 2
		leftCount  = maxCells + 1 - rightCount
	)
	for i := int64(maxCells); i >= 0; i-- {
		var (
			idx      = uint32(i)
			destCell *Cell
		)
		if idx >= leftCount {
			destCell = &aNewLeaf.Cells[idx-leftCount]
		} else {
			destCell = &aSplitLeaf.Cells[idx]
		}

		switch {
		case idx == c.CellIdx:
			*destCell = aCell
		case idx > c.CellIdx:
			*destCell = aSplitLeaf.Cells[idx-1]
		default:
			*destCell = aSplitLeaf.Cells[idx]
		}
	}

	aSplitLeaf.Header.Cells = leftCount
	aNewLeaf.Header.Cells = rightCount
	aTable.metrics.Splits.WithLabelValues(splitLeaf).Inc()

	if aSplitLeaf.Header.IsRoot {
		_, err := aTable.CreateNewRoot(ctx, aNewPage.Index)
		return err
	}

	// The old leaf kept the lower half so its separator in the parent shrinks
	parentPageIdx := aSplitLeaf.Header.Parent
	aParentPage, err := aTable.pager.GetPage(ctx, parentPageIdx)
	if err != nil {
		return fmt.Errorf("leaf node split insert: %w", err)
	}
	if aParentPage.InternalNode == nil {
		return fmt.Errorf("leaf node split insert: %w: parent page %d is not an internal node", ErrOutOfBounds, parentPageIdx)
	}
	newMaxKey, _ := aSplitLeaf.MaxKey()
	if err := aParentPage.InternalNode.UpdateChildKey(aSplitPage.Index, newMaxKey); err != nil {
		return fmt.Errorf("leaf node split insert: %w", err)
	}

	return aTable.InternalNodeInsert(ctx, parentPageIdx, aNewPage.Index)
}

func newCell(key uint32, aRecord *Record) (Cell, error) {
	aCell := Cell{Key: key}
	if _, err := aRecord.Marshal(aCell.Value[:]); err != nil {
		return Cell{}, fmt.Errorf("new cell: %w", err)
	}
	return aCell, nil
}
