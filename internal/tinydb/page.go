package tinydb

import (
	"fmt"
	"math"
)

const (
	PageSize        = 4096 // 4 kilobytes
	DefaultMaxPages = 100

	// RootPageIdx never changes, the root is rewritten in place when it splits.
	RootPageIdx PageIndex = 0

	// invalidPageIndex marks an unset internal node right child on disk.
	invalidPageIndex = math.MaxUint32
)

type PageIndex uint32

// PageRef is an optional reference to another page.
type PageRef struct {
	Index PageIndex
	Valid bool
}

func RefTo(pageIdx PageIndex) PageRef {
	return PageRef{Index: pageIdx, Valid: true}
}

// Page is a resident page. A page that was never initialised has neither node set.
type Page struct {
	Index        PageIndex
	LeafNode     *LeafNode
	InternalNode *InternalNode
}

// InitializeLeaf turns the page into an empty leaf node.
func (p *Page) InitializeLeaf() *LeafNode {
	p.LeafNode = NewLeafNode()
	p.InternalNode = nil
	return p.LeafNode
}

// InitializeInternal turns the page into an empty internal node able to hold maxCells keys.
func (p *Page) InitializeInternal(maxCells uint32) *InternalNode {
	p.InternalNode = NewInternalNode(maxCells)
	p.LeafNode = nil
	return p.InternalNode
}

func (p *Page) IsInitialized() bool {
	return p.LeafNode != nil || p.InternalNode != nil
}

func (p *Page) header() *Header {
	if p.LeafNode != nil {
		return &p.LeafNode.Header.Header
	}
	if p.InternalNode != nil {
		return &p.InternalNode.Header.Header
	}
	return nil
}

func (p *Page) IsRoot() bool {
	if h := p.header(); h != nil {
		return h.IsRoot
	}
	return false
}

func (p *Page) setRoot(isRoot bool) {
	if h := p.header(); h != nil {
		h.IsRoot = isRoot
	}
}

func (p *Page) Parent() PageIndex {
	if h := p.header(); h != nil {
		return h.Parent
	}
	return 0
}

func (p *Page) setParent(parentIdx PageIndex) {
	if h := p.header(); h != nil {
		h.Parent = parentIdx
	}
}

// Marshal encodes the node into a full page sized buffer.
func (p *Page) Marshal(buf []byte) ([]byte, error) {
	if len(buf) < PageSize {
		buf = make([]byte, PageSize)
	}
	buf = buf[:PageSize]
	clear(buf)

	if p.LeafNode != nil {
		if _, err := p.LeafNode.Marshal(buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	if p.InternalNode != nil {
		if _, err := p.InternalNode.Marshal(buf); err != nil {
			return nil, err
		}
		return buf, nil
	}
	return nil, fmt.Errorf("%w: page %d is neither internal nor leaf node", ErrOutOfBounds, p.Index)
}

// UnmarshalPage decodes a page read from disk.
func UnmarshalPage(pageIdx PageIndex, buf []byte, internalMaxCells uint32) (*Page, error) {
	aPage := &Page{Index: pageIdx}

	switch buf[0] {
	case PageTypeLeaf:
		leaf := NewLeafNode()
		if _, err := leaf.Unmarshal(buf); err != nil {
			return nil, fmt.Errorf("page %d: %w", pageIdx, err)
		}
		aPage.LeafNode = leaf
	case PageTypeInternal:
		internal := NewInternalNode(internalMaxCells)
		if _, err := internal.Unmarshal(buf); err != nil {
			return nil, fmt.Errorf("page %d: %w", pageIdx, err)
		}
		aPage.InternalNode = internal
	default:
		return nil, fmt.Errorf("%w: page %d has unrecognised node type %d", ErrCorruptFile, pageIdx, buf[0])
	}

	return aPage, nil
}
