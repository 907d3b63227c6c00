package repl

import (
	"context"
	"fmt"
	"strings"

	"github.com/RichardKnop/tinydb/internal/tinydb"
)

type metaCommand int

const (
	Unknown metaCommand = iota + 1
	Help
	Exit
	Btree
	Constants
	Open
	Close
	Mode
)

func isMetaCommand(line string) bool {
	return len(line) > 0 && line[:1] == "."
}

func parseMetaCommand(line string) (metaCommand, []string) {
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return Unknown, nil
	}

	switch fields[0] {
	case "help":
		return Help, fields[1:]
	case "exit":
		return Exit, fields[1:]
	case "btree":
		return Btree, fields[1:]
	case "constants":
		return Constants, fields[1:]
	case "open":
		return Open, fields[1:]
	case "close":
		return Close, fields[1:]
	case "mode":
		return Mode, fields[1:]
	default:
		return Unknown, fields[1:]
	}
}

func (s *Session) doMetaCommand(ctx context.Context, line string) (bool, error) {
	command, args := parseMetaCommand(line)

	switch command {
	case Help:
		fmt.Fprintln(s.out, ".help              - Show available commands")
		fmt.Fprintln(s.out, ".exit              - Flush the table to disk and quit")
		fmt.Fprintln(s.out, ".btree             - Print the B-tree")
		fmt.Fprintln(s.out, ".constants         - Print on-disk layout constants")
		fmt.Fprintln(s.out, ".open <file>       - Open a database file")
		fmt.Fprintln(s.out, ".close             - Close the open database file")
		fmt.Fprintln(s.out, ".mode <line|box>   - Change how selected records are printed")
	case Exit:
		return true, s.Close(ctx)
	case Btree:
		if s.table == nil {
			fmt.Fprintln(s.out, "No table to perform statement!")
			return false, nil
		}
		fmt.Fprintln(s.out, "Tree:")
		if err := s.table.PrintTree(ctx, s.out); err != nil {
			return false, err
		}
	case Constants:
		fmt.Fprintln(s.out, "Constants:")
		tinydb.PrintConstants(s.out)
	case Open:
		if len(args) != 1 {
			fmt.Fprintln(s.out, "Usage: .open <file>")
			return false, nil
		}
		if err := s.Close(ctx); err != nil {
			return false, err
		}
		aTable, err := tinydb.Open(ctx, args[0], s.tableOptions...)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %s\n", err)
			return false, nil
		}
		s.table = aTable
		fmt.Fprintf(s.out, "Opened database file %s\n", args[0])
	case Close:
		if err := s.Close(ctx); err != nil {
			return false, err
		}
	case Mode:
		if len(args) != 1 || (args[0] != "line" && args[0] != "box") {
			fmt.Fprintln(s.out, "Usage: .mode <line|box>")
			return false, nil
		}
		s.mode = ModeLine
		if args[0] == "box" {
			s.mode = ModeBox
		}
	case Unknown:
		fmt.Fprintf(s.out, "Unrecognized command '%s'.\n", line)
	}

	return false, nil
}
