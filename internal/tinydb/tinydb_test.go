package tinydb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichardKnop/tinydb/internal/pkg/logging"
)

//go:generate mockery --name=Pager --structname=MockPager --inpackage --case=snake --testonly

var (
	gen        = newDataGen(time.Now().Unix())
	testLogger *zap.Logger
)

func init() {
	logConf := logging.DefaultConfig()
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	l, err := logging.ParseLevel(level)
	if err != nil {
		panic(err)
	}
	logConf.Level = zap.NewAtomicLevelAt(l)
	testLogger, err = logConf.Build()
	if err != nil {
		panic(err)
	}
}

type dataGen struct {
	*gofakeit.Faker
}

func newDataGen(seed int64) *dataGen {
	g := dataGen{
		Faker: gofakeit.New(seed),
	}

	return &g
}

func (g *dataGen) Record(id uint32) Record {
	return Record{
		ID:       id,
		Username: g.Username(),
		Email:    g.Email(),
	}
}

// Records returns records with unique IDs in random order.
func (g *dataGen) Records(number int) []Record {
	idMap := map[uint32]struct{}{}
	records := make([]Record, 0, number)
	for len(records) < number {
		id := g.Uint32()
		if _, ok := idMap[id]; ok {
			continue
		}
		idMap[id] = struct{}{}
		records = append(records, g.Record(id))
	}

	return records
}

func initTest(t *testing.T) *os.File {
	tempFile, err := os.CreateTemp(".", "testdb")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.Remove(tempFile.Name())
	})

	return tempFile
}

// newTestTable opens a table over a fresh temp file.
func newTestTable(t *testing.T, opts ...Option) (*Table, string) {
	tempFile := initTest(t)
	require.NoError(t, tempFile.Close())

	opts = append([]Option{WithLogger(testLogger)}, opts...)
	aTable, err := Open(context.Background(), tempFile.Name(), opts...)
	require.NoError(t, err)

	return aTable, tempFile.Name()
}

func scanKeys(t *testing.T, aTable *Table) []uint32 {
	var keys []uint32
	err := aTable.Scan(context.Background(), func(aRecord Record) error {
		keys = append(keys, aRecord.ID)
		return nil
	})
	require.NoError(t, err)

	return keys
}

func testCell(t *testing.T, key uint32) Cell {
	aCell, err := newCell(key, &Record{
		ID:       key,
		Username: fmt.Sprintf("user%d", key),
		Email:    "user@example.com",
	})
	require.NoError(t, err)

	return aCell
}

func newTestLeafPage(t *testing.T, pageIdx, parentIdx PageIndex, next PageRef, keys ...uint32) *Page {
	aPage := &Page{Index: pageIdx}
	aLeaf := aPage.InitializeLeaf()
	aLeaf.Header.Parent = parentIdx
	aLeaf.Header.NextLeaf = next
	for i, key := range keys {
		aLeaf.Cells[i] = testCell(t, key)
	}
	aLeaf.Header.Cells = uint32(len(keys))

	return aPage
}

func newTestInternalPage(pageIdx, parentIdx PageIndex, rightChild PageIndex, cells ...ICell) *Page {
	aPage := &Page{Index: pageIdx}
	aNode := aPage.InitializeInternal(InternalNodeMaxCells)
	aNode.Header.Parent = parentIdx
	aNode.Header.RightChild = RefTo(rightChild)
	copy(aNode.ICells, cells)
	aNode.Header.KeysNum = uint32(len(cells))

	return aPage
}

/*
Below is a simple B tree for testing purposes

		           +-------------------+
		           |       *,5,*       |
		           +-------------------+
		          /                     \
		     +-------+                  +--------+
		     | *,2,* |                  | *,18,* |
		     +-------+                  +--------+
		    /         \                /          \
	 +---------+     +-----+     +-----------+    +------+
	 |   1,2   |     |  5  |     |   12,18   |    |  21  |
	 +---------+     +-----+     +-----------+    +------+
*/
func newTestBtree(t *testing.T) (*Page, []*Page, []*Page) {
	var (
		aRootPage     = newTestInternalPage(0, 0, 2, ICell{Child: 1, Key: 5})
		internalPage1 = newTestInternalPage(1, 0, 4, ICell{Child: 3, Key: 2})
		internalPage2 = newTestInternalPage(2, 0, 6, ICell{Child: 5, Key: 18})
		leafPage1     = newTestLeafPage(t, 3, 1, RefTo(4), 1, 2)
		leafPage2     = newTestLeafPage(t, 4, 1, RefTo(5), 5)
		leafPage3     = newTestLeafPage(t, 5, 2, RefTo(6), 12, 18)
		leafPage4     = newTestLeafPage(t, 6, 2, PageRef{}, 21)
	)
	aRootPage.setRoot(true)

	return aRootPage, []*Page{internalPage1, internalPage2}, []*Page{leafPage1, leafPage2, leafPage3, leafPage4}
}

// assertTreeInvariants walks the whole tree checking parent pointers,
// separator keys, the root flag and key ordering.
func assertTreeInvariants(t *testing.T, aTable *Table) {
	ctx := context.Background()

	var walk func(pageIdx PageIndex, parentIdx PageIndex, isRoot bool)
	walk = func(pageIdx PageIndex, parentIdx PageIndex, isRoot bool) {
		aPage, err := aTable.pager.GetPage(ctx, pageIdx)
		require.NoError(t, err)
		require.Equal(t, isRoot, aPage.IsRoot(), "page %d root flag", pageIdx)
		if !isRoot {
			require.Equal(t, parentIdx, aPage.Parent(), "page %d parent", pageIdx)
		}

		if aPage.LeafNode != nil {
			keys := aPage.LeafNode.Keys()
			for i := 1; i < len(keys); i++ {
				require.Less(t, keys[i-1], keys[i], "page %d keys not ascending", pageIdx)
			}
			return
		}

		aNode := aPage.InternalNode
		require.NotNil(t, aNode)
		require.True(t, aNode.Header.RightChild.Valid, "page %d has no right child", pageIdx)
		for _, aCell := range aNode.ICells[:aNode.Header.KeysNum] {
			aChildPage, err := aTable.pager.GetPage(ctx, aCell.Child)
			require.NoError(t, err)
			maxKey, err := aTable.GetMaxKey(ctx, aChildPage)
			require.NoError(t, err)
			require.Equal(t, maxKey, aCell.Key, "page %d separator for child %d", pageIdx, aCell.Child)
			walk(aCell.Child, pageIdx, false)
		}
		walk(aNode.Header.RightChild.Index, pageIdx, false)
	}

	walk(RootPageIdx, 0, true)
}
