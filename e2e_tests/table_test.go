package e2etests

import (
	"fmt"
	"strings"

	"github.com/RichardKnop/tinydb/internal/tinydb"
)

func (s *TestSuite) TestInsertAndSelect() {
	output := s.runScript([]string{
		"insert 1 user1 person1@example.com",
		"select",
		".exit",
	})

	s.Equal([]string{
		"db > Executed.",
		"db > (1, user1, person1@example.com)",
		"Executed.",
		"db > ",
	}, output)
}

func (s *TestSuite) TestTableFull() {
	var script []string
	for i := 0; i < 1401; i++ {
		script = append(script, fmt.Sprintf("insert %d user%d person%d@example.com", i, i, i))
	}
	script = append(script, ".exit")

	output := s.runScript(script)

	s.Equal("db > Error: Table full.", output[len(output)-2])

	full := 0
	for _, line := range output {
		if line == "db > Error: Table full." {
			full += 1
		}
	}
	s.Positive(full)
}

func (s *TestSuite) TestMaximumLengthStrings() {
	var (
		longUsername = strings.Repeat("a", tinydb.UsernameSize)
		longEmail    = strings.Repeat("a", tinydb.EmailSize)
	)

	output := s.runScript([]string{
		fmt.Sprintf("insert 1 %s %s", longUsername, longEmail),
		"select",
		".exit",
	})

	s.Equal([]string{
		"db > Executed.",
		fmt.Sprintf("db > (1, %s, %s)", longUsername, longEmail),
		"Executed.",
		"db > ",
	}, output)
}

func (s *TestSuite) TestStringsTooLong() {
	var (
		longUsername = strings.Repeat("a", tinydb.UsernameSize+1)
		longEmail    = strings.Repeat("a", tinydb.EmailSize+1)
	)

	output := s.runScript([]string{
		fmt.Sprintf("insert 1 %s %s", longUsername, longEmail),
		"select",
		".exit",
	})

	s.Equal([]string{
		"db > String is too long.",
		"db > Executed.",
		"db > ",
	}, output)
}

func (s *TestSuite) TestNegativeID() {
	output := s.runScript([]string{
		"insert -1 cstack foo@bar.com",
		"select",
		".exit",
	})

	s.Equal([]string{
		"db > ID must be positive.",
		"db > Executed.",
		"db > ",
	}, output)
}

func (s *TestSuite) TestDuplicateID() {
	output := s.runScript([]string{
		"insert 1 user1 person1@example.com",
		"insert 1 user1 person1@example.com",
		"select",
		".exit",
	})

	s.Equal([]string{
		"db > Executed.",
		"db > Error: Duplicate key.",
		"db > (1, user1, person1@example.com)",
		"Executed.",
		"db > ",
	}, output)
}

func (s *TestSuite) TestPersistence() {
	output := s.runScript([]string{
		"insert 1 user1 person1@example.com",
		".exit",
	})
	s.Equal([]string{
		"db > Executed.",
		"db > ",
	}, output)

	output = s.runScript([]string{
		"select",
		".exit",
	})
	s.Equal([]string{
		"db > (1, user1, person1@example.com)",
		"Executed.",
		"db > ",
	}, output)
}

func (s *TestSuite) TestPersistenceAcrossSplits() {
	var (
		script   []string
		expected []string
	)
	for i := 0; i < 100; i++ {
		id := (i*37)%100 + 1
		script = append(script, fmt.Sprintf("insert %d user%d person%d@example.com", id, id, id))
	}
	script = append(script, ".exit")
	s.runScript(script, tinydb.WithInternalNodeMaxCells(3))

	for i := 0; i < 100; i++ {
		expected = append(expected, fmt.Sprintf("(%d, user%d, person%d@example.com)", i+1, i+1, i+1))
	}

	output := s.runScript([]string{"select", ".exit"}, tinydb.WithInternalNodeMaxCells(3))
	s.Require().Len(output, 102)
	s.Equal("db > "+expected[0], output[0])
	s.Equal(expected[1:], output[1:100])
	s.Equal("Executed.", output[100])
}
