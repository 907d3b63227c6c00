package tinydb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_Advance(t *testing.T) {
	t.Parallel()

	var (
		ctx       = context.Background()
		aTable, _ = newMockedTable(t)
	)

	aCursor, err := aTable.Start(ctx)
	require.NoError(t, err)

	var (
		keys  []uint32
		pages []PageIndex
	)
	for !aCursor.IsEnd() {
		key, err := aCursor.Key(ctx)
		require.NoError(t, err)
		keys = append(keys, key)
		pages = append(pages, aCursor.PageIdx)
		require.NoError(t, aCursor.Advance(ctx))
	}

	assert.Equal(t, []uint32{1, 2, 5, 12, 18, 21}, keys)
	assert.Equal(t, []PageIndex{3, 3, 4, 5, 5, 6}, pages)

	// Advancing past the end is a no-op
	require.NoError(t, aCursor.Advance(ctx))
	assert.True(t, aCursor.IsEnd())
}

func TestCursor_Value(t *testing.T) {
	t.Parallel()

	var (
		ctx       = context.Background()
		aTable, _ = newMockedTable(t)
	)

	aCursor, err := aTable.Find(ctx, 5)
	require.NoError(t, err)

	value, err := aCursor.Value(ctx)
	require.NoError(t, err)
	require.Len(t, value, RecordSize)

	aRecord, err := aCursor.Record(ctx)
	require.NoError(t, err)
	assert.Equal(t, Record{ID: 5, Username: "user5", Email: "user@example.com"}, aRecord)
}

func TestCursor_Value_EndOfTable(t *testing.T) {
	t.Parallel()

	var (
		ctx       = context.Background()
		aTable, _ = newMockedTable(t)
	)

	aCursor, err := aTable.Find(ctx, 100)
	require.NoError(t, err)
	require.True(t, aCursor.IsEnd())

	_, err = aCursor.Value(ctx)
	require.ErrorIs(t, err, ErrOutOfBounds)

	_, err = aCursor.Key(ctx)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestCursor_LeafNodeInsert(t *testing.T) {
	t.Parallel()

	var (
		ctx       = context.Background()
		aTable, _ = newTestTable(t)
	)
	defer aTable.Close(ctx)

	for _, key := range []uint32{10, 30, 20} {
		aCursor, err := aTable.Find(ctx, key)
		require.NoError(t, err)
		require.NoError(t, aCursor.LeafNodeInsert(ctx, key, &Record{ID: key}))
	}

	aRootPage, err := aTable.pager.GetPage(ctx, RootPageIdx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{10, 20, 30}, aRootPage.LeafNode.Keys())
}

func TestCursor_LeafNodeSplitInsert(t *testing.T) {
	t.Parallel()

	// Insert position in the left half, at the boundary and in the right half
	testCases := []struct {
		Name      string
		NewKey    uint32
		LeftKeys  []uint32
		RightKeys []uint32
	}{
		{
			Name:      "New key is the smallest",
			NewKey:    1,
			LeftKeys:  []uint32{1, 2, 4, 6, 8, 10, 12},
			RightKeys: []uint32{14, 16, 18, 20, 22, 24, 26},
		},
		{
			Name:      "New key lands at the split point",
			NewKey:    13,
			LeftKeys:  []uint32{2, 4, 6, 8, 10, 12, 13},
			RightKeys: []uint32{14, 16, 18, 20, 22, 24, 26},
		},
		{
			Name:      "New key is the largest",
			NewKey:    27,
			LeftKeys:  []uint32{2, 4, 6, 8, 10, 12, 14},
			RightKeys: []uint32{16, 18, 20, 22, 24, 26, 27},
		},
	}

	for _, aTestCase := range testCases {
		t.Run(aTestCase.Name, func(t *testing.T) {
			var (
				ctx       = context.Background()
				aTable, _ = newTestTable(t)
			)
			defer aTable.Close(ctx)

			for i := 0; i < LeafNodeMaxCells; i++ {
				require.NoError(t, aTable.Insert(ctx, gen.Record(uint32(2*(i+1)))))
			}
			require.NoError(t, aTable.Insert(ctx, gen.Record(aTestCase.NewKey)))

			aRootPage, err := aTable.pager.GetPage(ctx, RootPageIdx)
			require.NoError(t, err)
			require.NotNil(t, aRootPage.InternalNode)

			// Right sibling was allocated first, the old root content was relocated after it
			var (
				rightPageIdx = PageIndex(1)
				leftPageIdx  = PageIndex(2)
			)
			assert.Equal(t, []PageIndex{leftPageIdx, rightPageIdx}, aRootPage.InternalNode.Children())
			assert.Equal(t, []uint32{aTestCase.LeftKeys[len(aTestCase.LeftKeys)-1]}, aRootPage.InternalNode.Keys())

			aLeftPage, err := aTable.pager.GetPage(ctx, leftPageIdx)
			require.NoError(t, err)
			assert.Equal(t, aTestCase.LeftKeys, aLeftPage.LeafNode.Keys())
			assert.Equal(t, RefTo(rightPageIdx), aLeftPage.LeafNode.Header.NextLeaf)

			aRightPage, err := aTable.pager.GetPage(ctx, rightPageIdx)
			require.NoError(t, err)
			assert.Equal(t, aTestCase.RightKeys, aRightPage.LeafNode.Keys())
			assert.False(t, aRightPage.LeafNode.Header.NextLeaf.Valid)

			assertTreeInvariants(t, aTable)
		})
	}
}
