package token

import "fmt"

// A Location describes the span of source text a token or node was built
// from. Start and End are rune offsets into the file; End is exclusive.
type Location struct {
	FileID int `json:"file"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

func NewLocation(fileID, start, end int) Location {
	if end < start {
		end = start
	}
	return Location{FileID: fileID, Start: start, End: end}
}

// Len reports the number of runes covered by l.
func (l Location) Len() int { return l.End - l.Start }

// Merge returns the smallest location covering both l and other.
func (l Location) Merge(other Location) Location {
	out := l
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Point returns the empty location at the end of l.
func (l Location) Point() Location {
	return Location{FileID: l.FileID, Start: l.End, End: l.End}
}

func (l Location) String() string { return fmt.Sprintf("%d..%d", l.Start, l.End) }
