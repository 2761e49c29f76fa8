package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/term"

	"github.com/xplshn/gfe/pkg/token"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
	Hash    uint64
}

// SourceSet maps file ids, as stored in token.Location, to source files.
type SourceSet struct {
	files []SourceFileRecord
}

func NewSourceSet() *SourceSet { return &SourceSet{} }

// Add registers a file and returns its id. Adding the same name with the
// same content twice returns the id of the first registration.
func (s *SourceSet) Add(name string, content []rune) int {
	h := xxhash.Sum64String(string(content))
	for i, f := range s.files {
		if f.Name == name && f.Hash == h {
			return i
		}
	}
	s.files = append(s.files, SourceFileRecord{Name: name, Content: content, Hash: h})
	return len(s.files) - 1
}

// File returns the record for id.
func (s *SourceSet) File(id int) (SourceFileRecord, bool) {
	if s == nil || id < 0 || id >= len(s.files) {
		return SourceFileRecord{}, false
	}
	return s.files[id], true
}

func (s *SourceSet) Len() int { return len(s.files) }

// Position converts a location to a file name and 1-based line and column.
func (s *SourceSet) Position(loc token.Location) (filename string, line, col int) {
	f, ok := s.File(loc.FileID)
	if !ok {
		return "unknown", 0, 0
	}
	line, col = LineColumn(f.Content, loc.Start)
	return f.Name, line, col
}

// LineColumn returns the 1-based line and column of offset within content.
// Offsets past the end are clamped.
func LineColumn(content []rune, offset int) (line, col int) {
	if offset > len(content) {
		offset = len(content)
	}
	line, col = 1, 1
	for _, r := range content[:max(offset, 0)] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

// A LocatedError is an error that knows which part of the source caused it.
// Both the lexer and the parser return errors of this shape.
type LocatedError interface {
	error
	Location() token.Location
	Message() string
}

// Diagnose renders err as "file:line:col: error: message" followed by the
// offending source line and a caret. Errors that carry no location are
// rendered as "error: message".
func (s *SourceSet) Diagnose(err error, color bool) string {
	red, green, reset := "", "", ""
	if color {
		red, green, reset = "\033[31m", "\033[32m", "\033[0m"
	}

	var le LocatedError
	if !errors.As(err, &le) {
		return fmt.Sprintf("%serror:%s %v\n", red, reset, err)
	}

	var sb strings.Builder
	loc := le.Location()
	filename, line, col := s.Position(loc)
	fmt.Fprintf(&sb, "%s:%d:%d: %serror:%s %s\n", filename, line, col, red, reset, le.Message())
	s.writeErrorLine(&sb, loc, line, col, green, reset)
	return sb.String()
}

// writeErrorLine prints the source line and a caret indicating the error position
func (s *SourceSet) writeErrorLine(sb *strings.Builder, loc token.Location, line, col int, green, reset string) {
	f, ok := s.File(loc.FileID)
	if !ok || line == 0 {
		return
	}

	content := f.Content
	lineStart := loc.Start - (col - 1)
	if lineStart < 0 || lineStart > len(content) {
		return
	}
	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' || content[i] == '\r' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(sb, "  %s\n", string(content[lineStart:lineEnd]))

	width := loc.Len()
	if loc.Start+width > lineEnd {
		width = lineEnd - loc.Start
	}
	fmt.Fprintf(sb, "  %s%s^", strings.Repeat(" ", col-1), green)
	if width > 1 {
		sb.WriteString(strings.Repeat("~", width-1))
	}
	fmt.Fprintf(sb, "%s\n", reset)
}

// IsTerminal reports whether w is a terminal, so callers know whether to
// emit ANSI colors.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintError writes the diagnostic for err to w, colored when w is a
// terminal.
func (s *SourceSet) PrintError(w io.Writer, err error) {
	fmt.Fprint(w, s.Diagnose(err, IsTerminal(w)))
}
