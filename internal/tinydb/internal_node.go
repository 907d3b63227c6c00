package tinydb

import (
	"fmt"
)

const (
	// Page size: 4096
	// Header size: 6 (base header) + 8 (internal header)
	// ICell size: 8
	// (4096 - 6 - 8) / 8
	InternalNodeHeaderSize = 6 + 8
	ICellSize              = 4 + 4
	InternalNodeMaxCells   = (PageSize - InternalNodeHeaderSize) / ICellSize
)

type InternalNodeHeader struct {
	Header
	KeysNum    uint32
	RightChild PageRef
}

func (h *InternalNodeHeader) Size() uint64 {
	return h.Header.Size() + 8
}

func (h *InternalNodeHeader) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()

	i := uint64(0)

	hbuf, err := h.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	marshalUint32(buf, h.KeysNum, i)
	i += 4

	rightChild := uint32(invalidPageIndex)
	if h.RightChild.Valid {
		rightChild = uint32(h.RightChild.Index)
	}
	marshalUint32(buf, rightChild, i)

	return buf[:size], nil
}

func (h *InternalNodeHeader) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := h.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	h.KeysNum = unmarshalUint32(buf, i)
	i += 4

	h.RightChild = PageRef{}
	if rightChild := unmarshalUint32(buf, i); rightChild != invalidPageIndex {
		h.RightChild = RefTo(PageIndex(rightChild))
	}

	return h.Size(), nil
}

// ICell is a child pointer followed by the max key of that child's subtree.
type ICell struct {
	Child PageIndex
	Key   uint32
}

func (c *ICell) Size() uint64 {
	return ICellSize
}

func (c *ICell) Marshal(buf []byte) ([]byte, error) {
	size := c.Size()
	if uint64(len(buf)) < size {
		return nil, fmt.Errorf("%w: internal cell needs %d bytes", ErrOutOfBounds, size)
	}

	marshalUint32(buf, uint32(c.Child), 0)
	marshalUint32(buf, c.Key, 4)

	return buf[:size], nil
}

func (c *ICell) Unmarshal(buf []byte) (uint64, error) {
	size := c.Size()
	if uint64(len(buf)) < size {
		return 0, fmt.Errorf("%w: internal cell needs %d bytes", ErrCorruptFile, size)
	}

	c.Child = PageIndex(unmarshalUint32(buf, 0))
	c.Key = unmarshalUint32(buf, 4)

	return size, nil
}

type InternalNode struct {
	Header InternalNodeHeader
	ICells []ICell // capacity of the node, only the first Header.KeysNum are used
}

// NewInternalNode returns an empty internal node, maxCells of 0 means InternalNodeMaxCells.
func NewInternalNode(maxCells uint32) *InternalNode {
	if maxCells == 0 || maxCells > InternalNodeMaxCells {
		maxCells = InternalNodeMaxCells
	}
	return &InternalNode{
		Header: InternalNodeHeader{
			Header: Header{
				IsInternal: true,
			},
		},
		ICells: make([]ICell, maxCells),
	}
}

func (n *InternalNode) Size() uint64 {
	size := n.Header.Size()
	for idx := range n.ICells[:n.Header.KeysNum] {
		size += n.ICells[idx].Size()
	}
	return size
}

func (n *InternalNode) Marshal(buf []byte) ([]byte, error) {
	if n.Header.KeysNum > uint32(len(n.ICells)) {
		return nil, fmt.Errorf("%w: internal node has %d keys, capacity %d", ErrOutOfBounds, n.Header.KeysNum, len(n.ICells))
	}

	i := uint64(0)

	hbuf, err := n.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	for idx := range n.ICells[:n.Header.KeysNum] {
		icbuf, err := n.ICells[idx].Marshal(buf[i:])
		if err != nil {
			return nil, err
		}
		i += uint64(len(icbuf))
	}

	return buf[:i], nil
}

func (n *InternalNode) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := n.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	if n.Header.KeysNum > uint32(len(n.ICells)) {
		return 0, fmt.Errorf("%w: internal key count %d exceeds capacity %d", ErrCorruptFile, n.Header.KeysNum, len(n.ICells))
	}

	for idx := range n.ICells[:n.Header.KeysNum] {
		ci, err := n.ICells[idx].Unmarshal(buf[i:])
		if err != nil {
			return 0, err
		}
		i += ci
	}

	return i, nil
}

func (n *InternalNode) MaxCells() uint32 {
	return uint32(len(n.ICells))
}

func (n *InternalNode) IsFull() bool {
	return n.Header.KeysNum >= n.MaxCells()
}
