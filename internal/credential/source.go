// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credential

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
)

// maxLineLength bounds a single line in a credential file.
const maxLineLength = 1 << 20

// Source supplies every line of a credential file.
type Source interface {
	// Lines returns the full line sequence. Implementations must release any
	// resource they acquire before returning, on success and on error.
	Lines() ([]string, error)
}

// FileSource reads lines from a file path.
type FileSource string

// Lines opens the file, reads it fully, and closes it.
func (p FileSource) Lines() (lines []string, err error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, oops.Code(CodeSourceUnavailable).With("path", string(p)).Wrap(err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = oops.Code(CodeSourceUnavailable).With("path", string(p)).Wrap(closeErr)
		}
	}()

	lines, err = readLines(f)
	if err != nil {
		return nil, oops.With("path", string(p)).Wrap(err)
	}
	return lines, nil
}

// LinesSource serves lines already held in memory.
type LinesSource []string

// Lines returns a copy of the held lines.
func (s LinesSource) Lines() ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	return out, nil
}

// TextSource splits an in-memory document into lines.
func TextSource(text string) LinesSource {
	if text == "" {
		return LinesSource{}
	}
	return LinesSource(strings.Split(strings.TrimSuffix(text, "\n"), "\n"))
}

// readerSource adapts an io.Reader. The reader is consumed on first use.
type readerSource struct {
	r io.Reader
}

// ReaderSource reads lines from r. The caller owns r and closes it.
func ReaderSource(r io.Reader) Source {
	return readerSource{r: r}
}

func (s readerSource) Lines() ([]string, error) {
	return readLines(s.r)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, oops.Code(CodeSourceUnavailable).Wrap(err)
	}
	return lines, nil
}
