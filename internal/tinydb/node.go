package tinydb

import (
	"fmt"
)

// IndexOfChild returns the index of the child which should contain the given key.
// For example, if node has 2 keys, this could return 0 for the leftmost child,
// 1 for the middle child or 2 for the rightmost child.
// The returned value is not a node index!
func (n *InternalNode) IndexOfChild(key uint32) uint32 {
	// Binary search
	var (
		minIdx = uint32(0)
		maxIdx = n.Header.KeysNum
	)
	for minIdx != maxIdx {
		idx := (minIdx + maxIdx) / 2
		rightKey := n.ICells[idx].Key
		if rightKey >= key {
			maxIdx = idx
		} else {
			minIdx = idx + 1
		}
	}

	return minIdx
}

// IndexOfPage returns the child index pointing at the page.
func (n *InternalNode) IndexOfPage(pageIdx PageIndex) (uint32, error) {
	for idx, aCell := range n.ICells[:n.Header.KeysNum] {
		if aCell.Child == pageIdx {
			return uint32(idx), nil
		}
	}
	if n.Header.RightChild.Valid && n.Header.RightChild.Index == pageIdx {
		return n.Header.KeysNum, nil
	}
	return 0, fmt.Errorf("%w: page %d is not a child", ErrOutOfBounds, pageIdx)
}

// Child returns a node index of nth child of the node marked by its index
// (0 for the leftmost child, index equal to number of keys means the rightmost child).
func (n *InternalNode) Child(childIdx uint32) (PageIndex, error) {
	keysNum := n.Header.KeysNum
	if childIdx > keysNum {
		return 0, fmt.Errorf("%w: child %d of internal node with %d keys", ErrOutOfBounds, childIdx, keysNum)
	}

	if childIdx == keysNum {
		if !n.Header.RightChild.Valid {
			return 0, fmt.Errorf("%w: right child of internal node is not set", ErrOutOfBounds)
		}
		return n.Header.RightChild.Index, nil
	}

	return n.ICells[childIdx].Child, nil
}

func (n *InternalNode) SetChild(childIdx uint32, pageIdx PageIndex) error {
	keysNum := n.Header.KeysNum
	if childIdx > keysNum {
		return fmt.Errorf("%w: child %d of internal node with %d keys", ErrOutOfBounds, childIdx, keysNum)
	}

	if childIdx == keysNum {
		n.Header.RightChild = RefTo(pageIdx)
		return nil
	}

	n.ICells[childIdx].Child = pageIdx
	return nil
}

func (n *InternalNode) Key(keyIdx uint32) (uint32, error) {
	if keyIdx >= n.Header.KeysNum {
		return 0, fmt.Errorf("%w: key %d of internal node with %d keys", ErrOutOfBounds, keyIdx, n.Header.KeysNum)
	}
	return n.ICells[keyIdx].Key, nil
}

// UpdateChildKey sets the separator of the child pointing at pageIdx. The right
// child has no separator so nothing changes for it.
func (n *InternalNode) UpdateChildKey(pageIdx PageIndex, key uint32) error {
	idx, err := n.IndexOfPage(pageIdx)
	if err != nil {
		return err
	}
	if idx < n.Header.KeysNum {
		n.ICells[idx].Key = key
	}
	return nil
}

func (n *InternalNode) Keys() []uint32 {
	keys := make([]uint32, 0, n.Header.KeysNum)
	for idx := uint32(0); idx < n.Header.KeysNum; idx++ {
		keys = append(keys, n.ICells[idx].Key)
	}
	return keys
}

func (n *InternalNode) Children() []PageIndex {
	children := make([]PageIndex, 0, n.Header.KeysNum+1)
	for idx := uint32(0); idx < n.Header.KeysNum; idx++ {
		children = append(children, n.ICells[idx].Child)
	}
	if n.Header.RightChild.Valid {
		children = append(children, n.Header.RightChild.Index)
	}
	return children
}
