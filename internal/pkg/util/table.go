package util

import (
	"fmt"
	"io"
	"strings"
)

const truncatedStringEnd = " ..."

// Column describes one column of a boxed table. Longer values are truncated to Width.
type Column struct {
	Name  string
	Width int
}

func PrintTableHeader(w io.Writer, columns []Column) {
	tableWidth := computeTableWidth(columns)

	// add top horizontal header
	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))

	for _, aColumn := range columns {
		// pad on the right rather than the left (left-justify the field)
		fmt.Fprintf(w, "| %-*s ", aColumn.Width, truncate(aColumn.Name, aColumn.Width))
	}
	fmt.Fprintf(w, "|\n")

	// add horizontal border bellow the header row
	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))
}

func PrintTableRow(w io.Writer, columns []Column, values []any) {
	for i, aColumn := range columns {
		var aStringValue string
		if i < len(values) {
			aStringValue = fmt.Sprint(values[i])
		}
		fmt.Fprintf(w, "| %-*s ", aColumn.Width, truncate(aStringValue, aColumn.Width))
	}
	fmt.Fprintf(w, "|\n")
}

func PrintTableEnd(w io.Writer, columns []Column) {
	tableWidth := computeTableWidth(columns)

	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= len(truncatedStringEnd) {
		return string(r[:width])
	}
	return string(r[:width-len(truncatedStringEnd)]) + truncatedStringEnd
}

func computeTableWidth(columns []Column) int {
	// left border is | followed by a space, right border is space followed by | (2+2=4)
	// then between each column we have space, |, space (3)
	tableWidth := 4 + (len(columns)-1)*3
	for _, aColumn := range columns {
		tableWidth += aColumn.Width
	}

	return tableWidth
}
