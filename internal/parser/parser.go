package parser

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 64 << 10

// ReadList reads a newline-delimited proxy list. Lines are trimmed; blank lines
// and lines starting with '#' are skipped. Order is preserved and duplicates
// are kept.
func ReadList(r io.Reader) ([]string, error) {
	var list []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		list = append(list, line)
	}

	return list, scanner.Err()
}

// SplitList is ReadList over an in-memory string.
func SplitList(s string) []string {
	list, _ := ReadList(strings.NewReader(s))
	return list
}
