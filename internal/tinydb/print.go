package tinydb

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const commonNodeHeaderSize = 6

// PrintTree writes an indented dump of the tree, one line per node and key.
func (t *Table) PrintTree(ctx context.Context, w io.Writer) error {
	return t.printNode(ctx, w, RootPageIdx, 0)
}

func (t *Table) printNode(ctx context.Context, w io.Writer, pageIdx PageIndex, level int) error {
	aPage, err := t.pager.GetPage(ctx, pageIdx)
	if err != nil {
		return fmt.Errorf("print tree: %w", err)
	}

	indent := strings.Repeat("  ", level)

	if aPage.LeafNode != nil {
		aLeaf := aPage.LeafNode
		fmt.Fprintf(w, "%s- leaf (size %d)\n", indent, aLeaf.Header.Cells)
		for _, key := range aLeaf.Keys() {
			fmt.Fprintf(w, "%s  - %d\n", indent, key)
		}
		return nil
	}

	if aPage.InternalNode == nil {
		return fmt.Errorf("print tree: %w: page %d is not initialised", ErrOutOfBounds, pageIdx)
	}

	aNode := aPage.InternalNode
	fmt.Fprintf(w, "%s- internal (size %d)\n", indent, aNode.Header.KeysNum)
	for _, aCell := range aNode.ICells[:aNode.Header.KeysNum] {
		if err := t.printNode(ctx, w, aCell.Child, level+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s  - key %d\n", indent, aCell.Key)
	}
	if aNode.Header.RightChild.Valid {
		return t.printNode(ctx, w, aNode.Header.RightChild.Index, level+1)
	}

	return nil
}

// PrintConstants writes the layout constants of the file format.
func PrintConstants(w io.Writer) {
	fmt.Fprintf(w, "ROW_SIZE: %d\n", RecordSize)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", commonNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", LeafNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", LeafNodeCellSize)
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", PageSize-LeafNodeHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", LeafNodeMaxCells)
	fmt.Fprintf(w, "INTERNAL_NODE_MAX_CELLS: %d\n", InternalNodeMaxCells)
}
