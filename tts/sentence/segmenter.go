// Package sentence resegments a stream of generated text fragments into
// sentence units that can be handed to speech synthesis one at a time.
//
// Only "." is treated as a boundary. A fragment that contains periods
// produces exactly one unit, ending at the last period of that fragment;
// text after it is held back until the next boundary or the end of the
// stream.
package sentence

import (
	"context"
	"errors"
	"io"
	"iter"
	"slices"
	"strings"
)

const (
	// Boundary is the only character that ends a sentence unit.
	Boundary = "."

	// unitSuffix terminates every unit emitted on a boundary.
	unitSuffix = Boundary + " "
)

// Segmenter accumulates fragments and cuts them into sentence units. A
// Segmenter belongs to exactly one stream: create it when the stream starts
// and drop it when the stream ends. It is not safe for concurrent use.
type Segmenter struct {
	pending strings.Builder
}

// NewSegmenter returns a Segmenter with an empty pending prefix.
func NewSegmenter() *Segmenter {
	return &Segmenter{}
}

// Push consumes one fragment. If the fragment contains a boundary it
// returns the unit that ends at its last period, followed by a single
// space, and keeps the text after that period as the new pending prefix.
func (s *Segmenter) Push(fragment string) (string, bool) {
	last := strings.LastIndex(fragment, Boundary)
	if last < 0 {
		s.pending.WriteString(fragment)
		return "", false
	}

	var unit strings.Builder
	unit.Grow(s.pending.Len() + last + len(unitSuffix))
	unit.WriteString(s.pending.String())
	unit.WriteString(fragment[:last])
	unit.WriteString(unitSuffix)

	s.pending.Reset()
	s.pending.WriteString(fragment[last+len(Boundary):])

	return unit.String(), true
}

// Flush ends the stream. Unterminated pending text is returned with a
// period appended; an empty prefix yields nothing.
func (s *Segmenter) Flush() (string, bool) {
	if s.pending.Len() == 0 {
		return "", false
	}
	unit := s.pending.String() + Boundary
	s.pending.Reset()
	return unit, true
}

// Pending returns the text held back since the last boundary.
func (s *Segmenter) Pending() string {
	return s.pending.String()
}

// Segment lazily turns a fragment sequence into sentence units. Each unit
// is yielded as soon as the fragment that completes it arrives, so the
// consumer can start synthesis before the rest of the stream exists.
func Segment(fragments iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		s := NewSegmenter()
		for f := range fragments {
			if unit, ok := s.Push(f); ok {
				if !yield(unit) {
					return
				}
			}
		}
		if unit, ok := s.Flush(); ok {
			yield(unit)
		}
	}
}

// Collect segments a complete list of fragments.
func Collect(fragments []string) []string {
	var units []string
	for unit := range Segment(slices.Values(fragments)) {
		units = append(units, unit)
	}
	return units
}

// Trim removes the marker a unit carries beyond its source text: the
// trailing space of a boundary unit, or the period Flush appends when
// final is true.
func Trim(unit string, final bool) string {
	if final {
		return strings.TrimSuffix(unit, Boundary)
	}
	return strings.TrimSuffix(unit, " ")
}

// IsBlank reports whether a unit carries nothing worth speaking.
func IsBlank(unit string) bool {
	return strings.Trim(unit, " \t\r\n"+Boundary) == ""
}

// Source delivers fragments one at a time. Next blocks until a fragment is
// available and returns io.EOF at the end of the stream.
type Source interface {
	Next(ctx context.Context) (string, error)
}

// Stream is the pull form of Segment: each call to Next blocks on the
// underlying Source until a unit is complete.
type Stream struct {
	src  Source
	seg  *Segmenter
	done bool
}

// NewStream returns a Stream over src.
func NewStream(src Source) *Stream {
	return &Stream{src: src, seg: NewSegmenter()}
}

// Next returns the next sentence unit and whether it is the final flush of
// held-back text. It returns io.EOF once the source is exhausted and all
// pending text has been emitted. Source errors are returned unchanged and
// the pending prefix is left in place.
func (st *Stream) Next(ctx context.Context) (unit string, final bool, err error) {
	if st.done {
		return "", false, io.EOF
	}
	for {
		fragment, err := st.src.Next(ctx)
		if errors.Is(err, io.EOF) {
			st.done = true
			if unit, ok := st.seg.Flush(); ok {
				return unit, true, nil
			}
			return "", false, io.EOF
		}
		if err != nil {
			return "", false, err
		}
		if unit, ok := st.seg.Push(fragment); ok {
			return unit, false, nil
		}
	}
}

// Pending exposes the text held back by the stream's segmenter.
func (st *Stream) Pending() string {
	return st.seg.Pending()
}
