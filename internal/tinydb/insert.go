package tinydb

import (
	"context"
	"errors"
	"fmt"
)

// Insert adds a record keyed by its ID. Existing keys are never overwritten,
// ErrDuplicateKey is returned instead. ErrTableFull is returned, before
// anything is modified, when the insert could need more pages than remain.
func (t *Table) Insert(ctx context.Context, aRecord Record) error {
	err := t.insert(ctx, aRecord)
	switch {
	case err == nil:
		t.metrics.Inserts.WithLabelValues(insertOK).Inc()
	case errors.Is(err, ErrDuplicateKey):
		t.metrics.Inserts.WithLabelValues(insertDuplicateKey).Inc()
	case errors.Is(err, ErrTableFull):
		t.metrics.Inserts.WithLabelValues(insertTableFull).Inc()
	}
	return err
}

func (t *Table) insert(ctx context.Context, aRecord Record) error {
	if err := aRecord.Validate(); err != nil {
		return err
	}

	aCursor, err := t.Find(ctx, aRecord.ID)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	aPage, err := t.pager.GetPage(ctx, aCursor.PageIdx)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	aLeaf := aPage.LeafNode

	if aCursor.CellIdx < aLeaf.Header.Cells && aLeaf.Cells[aCursor.CellIdx].Key == aRecord.ID {
		return fmt.Errorf("%w: %d", ErrDuplicateKey, aRecord.ID)
	}

	if aLeaf.IsFull() {
		needed, err := t.pagesNeededForSplit(ctx, aPage)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		if t.pager.TotalPages()+needed > t.pager.MaxPages() {
			return fmt.Errorf("%w: inserting key %d needs %d new pages, %d of %d used",
				ErrTableFull, aRecord.ID, needed, t.pager.TotalPages(), t.pager.MaxPages())
		}
	}

	return aCursor.LeafNodeInsert(ctx, aRecord.ID, &aRecord)
}

// pagesNeededForSplit walks up from a full leaf and counts the pages a split
// could allocate: one per full node on the way up plus one to relocate the
// root when the split reaches it.
func (t *Table) pagesNeededForSplit(ctx context.Context, aPage *Page) (uint32, error) {
	needed := uint32(1)
	for {
		if aPage.IsRoot() {
			return needed + 1, nil
		}

		aParentPage, err := t.pager.GetPage(ctx, aPage.Parent())
		if err != nil {
			return 0, err
		}
		if aParentPage.InternalNode == nil {
			return 0, fmt.Errorf("%w: parent page %d is not an internal node", ErrOutOfBounds, aParentPage.Index)
		}
		if !aParentPage.InternalNode.IsFull() {
			return needed, nil
		}
		needed += 1
		aPage = aParentPage
	}
}

// CreateNewRoot handles splitting the root.
// Old root content is moved to a new page which becomes the left child.
// Page index of the right child is passed in.
// The root page is re-initialised as an internal node pointing at both children.
func (t *Table) CreateNewRoot(ctx context.Context, rightChildPageIdx PageIndex) (*Page, error) {
	aRootPage, err := t.pager.GetPage(ctx, RootPageIdx)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	aRightChildPage, err := t.pager.GetPage(ctx, rightChildPageIdx)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	aLeftChildPage, err := t.newPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	t.logger.Sugar().With(
		"left_child_index", int(aLeftChildPage.Index),
		"right_child_index", int(rightChildPageIdx),
	).Debug("create new root")

	// Relocate the old root content to the left child
	aLeftChildPage.LeafNode = aRootPage.LeafNode
	aLeftChildPage.InternalNode = aRootPage.InternalNode
	aLeftChildPage.setRoot(false)
	if aLeftChildPage.InternalNode != nil {
		for _, childPageIdx := range aLeftChildPage.InternalNode.Children() {
			aChildPage, err := t.pager.GetPage(ctx, childPageIdx)
			if err != nil {
				return nil, fmt.Errorf("create new root: %w", err)
			}
			aChildPage.setParent(aLeftChildPage.Index)
		}
	}

	leftChildMaxKey, err := t.GetMaxKey(ctx, aLeftChildPage)
	if err != nil {
		return nil, fmt.Errorf("create new root: %w", err)
	}

	// Root page becomes a new internal node with one key and two children
	aNewRoot := aRootPage.InitializeInternal(t.maxICells)
	aNewRoot.Header.IsRoot = true
	aNewRoot.Header.KeysNum = 1
	aNewRoot.ICells[0] = ICell{
		Child: aLeftChildPage.Index,
		Key:   leftChildMaxKey,
	}
	aNewRoot.Header.RightChild = RefTo(rightChildPageIdx)

	aLeftChildPage.setParent(RootPageIdx)
	aRightChildPage.setParent(RootPageIdx)

	t.metrics.Splits.WithLabelValues(splitRoot).Inc()

	return aLeftChildPage, nil
}

// InternalNodeInsert adds a new child/key pair to parent that corresponds to child.
func (t *Table) InternalNodeInsert(ctx context.Context, parentPageIdx, childPageIdx PageIndex) error {
	aParentPage, err := t.pager.GetPage(ctx, parentPageIdx)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}
	if aParentPage.InternalNode == nil {
		return fmt.Errorf("internal node insert: %w: page %d is not an internal node", ErrOutOfBounds, parentPageIdx)
	}
	aParent := aParentPage.InternalNode

	aChildPage, err := t.pager.GetPage(ctx, childPageIdx)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}

	if aParent.IsFull() {
		return t.InternalNodeSplitInsert(ctx, parentPageIdx, childPageIdx)
	}

	aChildPage.setParent(parentPageIdx)

	// An internal node without a right child is empty
	if !aParent.Header.RightChild.Valid {
		aParent.Header.RightChild = RefTo(childPageIdx)
		return nil
	}

	childMaxKey, err := t.GetMaxKey(ctx, aChildPage)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}

	rightChildPageIdx := aParent.Header.RightChild.Index
	aRightChildPage, err := t.pager.GetPage(ctx, rightChildPageIdx)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}
	rightChildMaxKey, err := t.GetMaxKey(ctx, aRightChildPage)
	if err != nil {
		return fmt.Errorf("internal node insert: %w", err)
	}

	var (
		index            = aParent.IndexOfChild(childMaxKey)
		originalKeyCount = aParent.Header.KeysNum
	)
	aParent.Header.KeysNum += 1

	if childMaxKey > rightChildMaxKey {
		// Replace right child, the old one gets a regular cell
		aParent.ICells[originalKeyCount] = ICell{
			Child: rightChildPageIdx,
			Key:   rightChildMaxKey,
		}
		aParent.Header.RightChild = RefTo(childPageIdx)
		return nil
	}

	// Make room for the new cell
	for i := originalKeyCount; i > index; i-- {
		aParent.ICells[i] = aParent.ICells[i-1]
	}
	aParent.ICells[index] = ICell{
		Child: childPageIdx,
		Key:   childMaxKey,
	}

	return nil
}

// InternalNodeSplitInsert splits a full internal node. The upper half of its
// children, including the right child, move to a new sibling and the child
// before the middle key becomes the old node's right child. The incoming
// child goes into whichever node its max key belongs to, then the sibling is
// inserted into the parent, which could cause the parent to split as well.
// If the original node is root, a new root is created.
func (t *Table) InternalNodeSplitInsert(ctx context.Context, pageIdx, childPageIdx PageIndex) error {
	aSplitPage, err := t.pager.GetPage(ctx, pageIdx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	aChildPage, err := t.pager.GetPage(ctx, childPageIdx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	childMaxKey, err := t.GetMaxKey(ctx, aChildPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	// The new page will be on the same level as the original node, to the right of it
	aNewPage, err := t.newPage(ctx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	aNewPage.InitializeInternal(t.maxICells)

	t.logger.Sugar().With(
		"page_index", int(pageIdx),
		"new_page_index", int(aNewPage.Index),
	).Debug("internal node split insert")

	splittingRoot := aSplitPage.IsRoot()
	if splittingRoot {
		// The old root content now lives in the new root's left child,
		// the new page is already the new root's right child
		aSplitPage, err = t.CreateNewRoot(ctx, aNewPage.Index)
		if err != nil {
			return fmt.Errorf("internal node split insert: %w", err)
		}
	}
	var (
		aSplitNode   = aSplitPage.InternalNode
		parentIdx    = aSplitPage.Parent()
		maxCells     = aSplitNode.MaxCells()
		newPageIdx   = aNewPage.Index
		splitPageIdx = aSplitPage.Index
	)

	// First move the right child into the new node
	if !aSplitNode.Header.RightChild.Valid {
		return fmt.Errorf("internal node split insert: %w: page %d has no right child", ErrOutOfBounds, splitPageIdx)
	}
	if err := t.InternalNodeInsert(ctx, newPageIdx, aSplitNode.Header.RightChild.Index); err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	aSplitNode.Header.RightChild = PageRef{}

	// Move each child above the middle key to the new node
	for i := maxCells - 1; i > maxCells/2; i-- {
		if err := t.InternalNodeInsert(ctx, newPageIdx, aSplitNode.ICells[i].Child); err != nil {
			return fmt.Errorf("internal node split insert: %w", err)
		}
		aSplitNode.ICells[i] = ICell{}
		aSplitNode.Header.KeysNum -= 1
	}

	// The child before the middle key, which is now the highest key, becomes the right child
	lastIdx := aSplitNode.Header.KeysNum - 1
	aSplitNode.Header.RightChild = RefTo(aSplitNode.ICells[lastIdx].Child)
	aSplitNode.ICells[lastIdx] = ICell{}
	aSplitNode.Header.KeysNum -= 1

	maxAfterSplit, err := t.GetMaxKey(ctx, aSplitPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	// Insert the child into whichever node it belongs to
	destPageIdx := newPageIdx
	if childMaxKey < maxAfterSplit {
		destPageIdx = splitPageIdx
	}
	if err := t.InternalNodeInsert(ctx, destPageIdx, childPageIdx); err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	// The old node's max key may have changed, update its separator in the parent
	aParentPage, err := t.pager.GetPage(ctx, parentIdx)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	newMaxKey, err := t.GetMaxKey(ctx, aSplitPage)
	if err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}
	if err := aParentPage.InternalNode.UpdateChildKey(splitPageIdx, newMaxKey); err != nil {
		return fmt.Errorf("internal node split insert: %w", err)
	}

	t.metrics.Splits.WithLabelValues(splitInternal).Inc()

	if splittingRoot {
		return nil
	}

	return t.InternalNodeInsert(ctx, parentIdx, newPageIdx)
}
