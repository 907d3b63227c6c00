package tinydb

import (
	"fmt"
)

const (
	// Page size: 4096
	// Header size: 6 (base header) + 8 (leaf header)
	// Cell size: 4 (key) + 293 (record)
	// (4096 - 6 - 8) / 297
	LeafNodeHeaderSize = 6 + 8
	LeafNodeCellSize   = 4 + RecordSize
	LeafNodeMaxCells   = (PageSize - LeafNodeHeaderSize) / LeafNodeCellSize

	// The split puts the upper half into the new right sibling.
	LeafNodeRightSplitCount = (LeafNodeMaxCells + 2) / 2
	LeafNodeLeftSplitCount  = LeafNodeMaxCells + 1 - LeafNodeRightSplitCount
)

type LeafNodeHeader struct {
	Header
	Cells    uint32
	NextLeaf PageRef
}

func (h *LeafNodeHeader) Size() uint64 {
	return h.Header.Size() + 8
}

func (h *LeafNodeHeader) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()

	i := uint64(0)

	hbuf, err := h.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	marshalUint32(buf, h.Cells, i)
	i += 4

	// Page 0 is always the root so it can never be a sibling
	nextLeaf := uint32(0)
	if h.NextLeaf.Valid {
		nextLeaf = uint32(h.NextLeaf.Index)
	}
	marshalUint32(buf, nextLeaf, i)

	return buf[:size], nil
}

func (h *LeafNodeHeader) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := h.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	h.Cells = unmarshalUint32(buf, i)
	i += 4

	h.NextLeaf = PageRef{}
	if nextLeaf := unmarshalUint32(buf, i); nextLeaf != 0 {
		h.NextLeaf = RefTo(PageIndex(nextLeaf))
	}

	return h.Size(), nil
}

type Cell struct {
	Key   uint32
	Value [RecordSize]byte
}

func (c *Cell) Size() uint64 {
	return LeafNodeCellSize
}

func (c *Cell) Marshal(buf []byte) ([]byte, error) {
	size := c.Size()
	if uint64(len(buf)) < size {
		return nil, fmt.Errorf("%w: cell needs %d bytes", ErrOutOfBounds, size)
	}

	marshalUint32(buf, c.Key, 0)
	copy(buf[4:size], c.Value[:])

	return buf[:size], nil
}

func (c *Cell) Unmarshal(buf []byte) (uint64, error) {
	size := c.Size()
	if uint64(len(buf)) < size {
		return 0, fmt.Errorf("%w: cell needs %d bytes", ErrCorruptFile, size)
	}

	c.Key = unmarshalUint32(buf, 0)
	copy(c.Value[:], buf[4:size])

	return size, nil
}

// Record decodes the cell value.
func (c *Cell) Record() (Record, error) {
	var aRecord Record
	if err := UnmarshalRecord(c.Value[:], &aRecord); err != nil {
		return Record{}, err
	}
	return aRecord, nil
}

type LeafNode struct {
	Header LeafNodeHeader
	Cells  []Cell // always LeafNodeMaxCells long, only the first Header.Cells are used
}

func NewLeafNode() *LeafNode {
	return &LeafNode{
		Cells: make([]Cell, LeafNodeMaxCells),
	}
}

func (n *LeafNode) Size() uint64 {
	size := n.Header.Size()
	for idx := range n.Cells[:n.Header.Cells] {
		size += n.Cells[idx].Size()
	}
	return size
}

func (n *LeafNode) Marshal(buf []byte) ([]byte, error) {
	if n.Header.Cells > uint32(len(n.Cells)) {
		return nil, fmt.Errorf("%w: leaf has %d cells, capacity %d", ErrOutOfBounds, n.Header.Cells, len(n.Cells))
	}

	i := uint64(0)

	hbuf, err := n.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	for idx := range n.Cells[:n.Header.Cells] {
		cbuf, err := n.Cells[idx].Marshal(buf[i:])
		if err != nil {
			return nil, err
		}
		i += uint64(len(cbuf))
	}

	return buf[:i], nil
}

func (n *LeafNode) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := n.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	if n.Header.Cells > uint32(len(n.Cells)) {
		return 0, fmt.Errorf("%w: leaf cell count %d exceeds capacity %d", ErrCorruptFile, n.Header.Cells, len(n.Cells))
	}

	for idx := range n.Cells[:n.Header.Cells] {
		ci, err := n.Cells[idx].Unmarshal(buf[i:])
		if err != nil {
			return 0, err
		}
		i += ci
	}

	return i, nil
}

func (n *LeafNode) MaxCells() uint32 {
	return uint32(len(n.Cells))
}

func (n *LeafNode) IsFull() bool {
	return n.Header.Cells >= n.MaxCells()
}

// Cell returns the nth cell, failing if idx is past the cell count.
func (n *LeafNode) Cell(idx uint32) (*Cell, error) {
	if idx >= n.Header.Cells {
		return nil, fmt.Errorf("%w: cell %d of leaf with %d cells", ErrOutOfBounds, idx, n.Header.Cells)
	}
	return &n.Cells[idx], nil
}

func (n *LeafNode) Key(idx uint32) (uint32, error) {
	aCell, err := n.Cell(idx)
	if err != nil {
		return 0, err
	}
	return aCell.Key, nil
}

func (n *LeafNode) Value(idx uint32) ([]byte, error) {
	aCell, err := n.Cell(idx)
	if err != nil {
		return nil, err
	}
	return aCell.Value[:], nil
}

// MaxKey returns the key of the last cell, false for an empty leaf.
func (n *LeafNode) MaxKey() (uint32, bool) {
	if n.Header.Cells == 0 {
		return 0, false
	}
	return n.Cells[n.Header.Cells-1].Key, true
}

// IndexOfKey returns the index of the first cell with key >= the given key.
// That is the matching cell when the key exists, otherwise the insertion slot.
func (n *LeafNode) IndexOfKey(key uint32) uint32 {
	var (
		minIdx = uint32(0)
		maxIdx = n.Header.Cells
	)
	for minIdx != maxIdx {
		idx := (minIdx + maxIdx) / 2
		if n.Cells[idx].Key >= key {
			maxIdx = idx
		} else {
			minIdx = idx + 1
		}
	}
	return minIdx
}

func (n *LeafNode) Keys() []uint32 {
	keys := make([]uint32, 0, n.Header.Cells)
	for idx := uint32(0); idx < n.Header.Cells; idx++ {
		keys = append(keys, n.Cells[idx].Key)
	}
	return keys
}
