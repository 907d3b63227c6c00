package tinydb

import (
	"fmt"
)

const (
	PageTypeLeaf byte = iota
	PageTypeInternal
)

// Header is common to leaf and internal nodes.
type Header struct {
	IsInternal bool
	IsRoot     bool
	Parent     PageIndex
}

func (h *Header) Size() uint64 {
	return 1 + 1 + 4
}

func (h *Header) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()
	if uint64(len(buf)) < size {
		return nil, fmt.Errorf("%w: header needs %d bytes", ErrOutOfBounds, size)
	}

	if h.IsInternal {
		buf[0] = PageTypeInternal
	} else {
		buf[0] = PageTypeLeaf
	}

	if h.IsRoot {
		buf[1] = 1
	} else {
		buf[1] = 0
	}

	marshalUint32(buf, uint32(h.Parent), 2)

	return buf[:size], nil
}

func (h *Header) Unmarshal(buf []byte) (uint64, error) {
	if buf[0] != PageTypeLeaf && buf[0] != PageTypeInternal {
		return 0, fmt.Errorf("%w: unrecognised node type byte %d", ErrCorruptFile, buf[0])
	}
	h.IsInternal = buf[0] == PageTypeInternal
	h.IsRoot = buf[1] == 1
	h.Parent = PageIndex(unmarshalUint32(buf, 2))

	return h.Size(), nil
}
