package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text files. Lines are kept as written so that
// indentation survives for bullet nesting.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Source{
		Title: titleFrom(filename),
		Lines: trimTrailingBlanks(lines),
	}, nil
}
