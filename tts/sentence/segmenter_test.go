package sentence

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
)

func TestNewSegmenter(t *testing.T) {
	s := NewSegmenter()
	if s == nil {
		t.Fatal("NewSegmenter returned nil")
	}
	if s.Pending() != "" {
		t.Errorf("Expected empty pending prefix, got %q", s.Pending())
	}
	if unit, ok := s.Flush(); ok {
		t.Errorf("Flush on a fresh segmenter emitted %q", unit)
	}
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		expected  []string
	}{
		{
			name:      "empty stream",
			fragments: nil,
			expected:  nil,
		},
		{
			name:      "two sentences across fragments",
			fragments: []string{"Hello", " world.", " Bye."},
			expected:  []string{"Hello world. ", " Bye. "},
		},
		{
			name:      "no period flushes with period",
			fragments: []string{"no period here"},
			expected:  []string{"no period here."},
		},
		{
			name:      "multiple periods in one fragment stay in one unit",
			fragments: []string{"a.b.c."},
			expected:  []string{"a.b.c. "},
		},
		{
			name:      "lone period emits pending",
			fragments: []string{"Wait", "."},
			expected:  []string{"Wait. "},
		},
		{
			name:      "lone period with nothing pending",
			fragments: []string{"."},
			expected:  []string{". "},
		},
		{
			name:      "text after last period is held back",
			fragments: []string{"One. Tw", "o"},
			expected:  []string{"One. ", " Two."},
		},
		{
			name:      "tail carried into next boundary",
			fragments: []string{"First. Sec", "ond", " part. Third"},
			expected:  []string{"First. ", " Second part. ", " Third."},
		},
		{
			name:      "decimal numbers are not special",
			fragments: []string{"Pi is 3.14"},
			expected:  []string{"Pi is 3. ", "14."},
		},
		{
			name:      "empty fragments are harmless",
			fragments: []string{"", "Hi", "", "."},
			expected:  []string{"Hi. "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := Collect(tt.fragments)

			if len(units) != len(tt.expected) {
				t.Errorf("Expected %d units, got %d", len(tt.expected), len(units))
				for i, u := range units {
					t.Logf("  [%d]: %q", i, u)
				}
				return
			}

			for i, expected := range tt.expected {
				if units[i] != expected {
					t.Errorf("Unit %d: expected %q, got %q", i, expected, units[i])
				}
			}
		})
	}
}

func TestPushLeavesPendingEmptyAfterTrailingPeriod(t *testing.T) {
	s := NewSegmenter()
	for _, f := range []string{"Hello", " world.", " Bye."} {
		s.Push(f)
	}
	if s.Pending() != "" {
		t.Errorf("Expected empty pending prefix, got %q", s.Pending())
	}
}

func TestSegmentReconstructsInput(t *testing.T) {
	streams := [][]string{
		{"Hello", " world.", " Bye."},
		{"no period here"},
		{"a.b.c."},
		{"The quick", " brown fox. It", " jumped", ". Over the", " dog"},
		{".", ".", "x"},
		{"Ünïcödé. ", "テキスト。", "end."},
		{},
	}

	for _, fragments := range streams {
		want := strings.Join(fragments, "")

		s := NewSegmenter()
		var got strings.Builder
		for _, f := range fragments {
			if unit, ok := s.Push(f); ok {
				got.WriteString(Trim(unit, false))
			}
		}
		if unit, ok := s.Flush(); ok {
			got.WriteString(Trim(unit, true))
		}

		if got.String() != want {
			t.Errorf("Reconstruction mismatch for %q: got %q, want %q", fragments, got.String(), want)
		}
	}
}

func TestSegmentStopsEarly(t *testing.T) {
	pulled := 0
	fragments := func(yield func(string) bool) {
		for _, f := range []string{"One.", "Two.", "Three.", "Four."} {
			pulled++
			if !yield(f) {
				return
			}
		}
	}

	var units []string
	for unit := range Segment(fragments) {
		units = append(units, unit)
		if len(units) == 2 {
			break
		}
	}

	if !slices.Equal(units, []string{"One. ", "Two. "}) {
		t.Errorf("Unexpected units: %q", units)
	}
	if pulled != 2 {
		t.Errorf("Expected 2 fragments pulled, got %d", pulled)
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		unit     string
		expected bool
	}{
		{". ", true},
		{" .", true},
		{"", true},
		{"Hi. ", false},
		{"a.", false},
	}

	for _, tt := range tests {
		if got := IsBlank(tt.unit); got != tt.expected {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.unit, got, tt.expected)
		}
	}
}

// sliceSource replays fragments and then an optional error.
type sliceSource struct {
	fragments []string
	err       error
	calls     int
}

func (s *sliceSource) Next(ctx context.Context) (string, error) {
	s.calls++
	if len(s.fragments) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f, nil
}

func TestStreamNext(t *testing.T) {
	src := &sliceSource{fragments: []string{"Hello", " world.", " Bye. Tail"}}
	st := NewStream(src)
	ctx := context.Background()

	unit, final, err := st.Next(ctx)
	if err != nil || unit != "Hello world. " || final {
		t.Fatalf("First Next = %q, %v, %v", unit, final, err)
	}
	if src.calls != 2 {
		t.Errorf("Expected 2 pulls for the first unit, got %d", src.calls)
	}

	unit, final, err = st.Next(ctx)
	if err != nil || unit != " Bye. " || final {
		t.Fatalf("Second Next = %q, %v, %v", unit, final, err)
	}
	if st.Pending() != " Tail" {
		t.Errorf("Pending = %q, want %q", st.Pending(), " Tail")
	}

	unit, final, err = st.Next(ctx)
	if err != nil || unit != " Tail." || !final {
		t.Fatalf("Third Next = %q, %v, %v", unit, final, err)
	}

	for i := 0; i < 2; i++ {
		if _, _, err := st.Next(ctx); !errors.Is(err, io.EOF) {
			t.Fatalf("Expected io.EOF after the end of the stream, got %v", err)
		}
	}
}

func TestStreamEmpty(t *testing.T) {
	st := NewStream(&sliceSource{})
	if _, _, err := st.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("Expected io.EOF for an empty stream, got %v", err)
	}
}

func TestStreamPropagatesSourceError(t *testing.T) {
	boom := errors.New("connection reset")
	st := NewStream(&sliceSource{fragments: []string{"Partial"}, err: boom})

	_, _, err := st.Next(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected source error, got %v", err)
	}
	if st.Pending() != "Partial" {
		t.Errorf("Pending prefix should survive the error, got %q", st.Pending())
	}
}
