package e2etests

import (
	"fmt"
)

func (s *TestSuite) TestPrintConstants() {
	output := s.runScript([]string{
		".constants",
		".exit",
	})

	s.Equal([]string{
		"db > Constants:",
		"ROW_SIZE: 293",
		"COMMON_NODE_HEADER_SIZE: 6",
		"LEAF_NODE_HEADER_SIZE: 14",
		"LEAF_NODE_CELL_SIZE: 297",
		"LEAF_NODE_SPACE_FOR_CELLS: 4082",
		"LEAF_NODE_MAX_CELLS: 13",
		"INTERNAL_NODE_MAX_CELLS: 510",
		"db > ",
	}, output)
}

func (s *TestSuite) TestPrintOneNodeBtree() {
	output := s.runScript([]string{
		"insert 3 user3 person3@example.com",
		"insert 1 user1 person1@example.com",
		"insert 2 user2 person2@example.com",
		".btree",
		".exit",
	})

	s.Equal([]string{
		"db > Executed.",
		"db > Executed.",
		"db > Executed.",
		"db > Tree:",
		"- leaf (size 3)",
		"  - 1",
		"  - 2",
		"  - 3",
		"db > ",
	}, output)
}

func (s *TestSuite) TestPrintThreeLeafNodeBtree() {
	var script []string
	for i := 0; i < 14; i++ {
		id := i + 1
		script = append(script, fmt.Sprintf("insert %d user%d person%d@example.com", id, id, id))
	}
	script = append(script, ".btree", "insert 15 user15 person15@example.com", ".exit")

	output := s.runScript(script)

	s.Equal([]string{
		"db > Tree:",
		"- internal (size 1)",
		"  - leaf (size 7)",
		"    - 1",
		"    - 2",
		"    - 3",
		"    - 4",
		"    - 5",
		"    - 6",
		"    - 7",
		"  - key 7",
		"  - leaf (size 7)",
		"    - 8",
		"    - 9",
		"    - 10",
		"    - 11",
		"    - 12",
		"    - 13",
		"    - 14",
		"db > Executed.",
		"db > ",
	}, output[14:])
}

func (s *TestSuite) TestPrintAllRowsInMultiLevelTree() {
	var script []string
	for i := 0; i < 15; i++ {
		id := i + 1
		script = append(script, fmt.Sprintf("insert %d user%d person%d@example.com", id, id, id))
	}
	script = append(script, "select", ".exit")

	output := s.runScript(script)

	expected := []string{"db > (1, user1, person1@example.com)"}
	for i := 2; i <= 15; i++ {
		expected = append(expected, fmt.Sprintf("(%d, user%d, person%d@example.com)", i, i, i))
	}
	expected = append(expected, "Executed.", "db > ")

	s.Equal(expected, output[15:])
}
