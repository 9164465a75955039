package textproc

import (
	"strings"
	"testing"
)

func TestSegmentSentences(t *testing.T) {
	got := Segment("Hello world. This is a test! Are you sure?")
	want := []string{"Hello world.", "This is a test!", "Are you sure?"}
	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSegmentShortSentenceNotSplit(t *testing.T) {
	// Terminators inside the first 10 runes do not close a chunk.
	got := Segment("Dr. Smith spoke first.")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %v", len(got), got)
	}
}

func TestSegmentTrailingBufferKept(t *testing.T) {
	got := Segment("A complete sentence. and a trailing fragment")
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(got), got)
	}
	if got[1] != "and a trailing fragment" {
		t.Fatalf("unexpected trailing chunk: %q", got[1])
	}
}

func TestSegmentClauseFallback(t *testing.T) {
	in := "a,b,c,d,e,f,g,h,i,j,k,l,m,n,o,p,q,r,s,t,u,v,w,x,y,z,a,b,c,d,e,f,g,h,i,j,k,l,m,n,o,p,q,r,s,t,u,v,w,x,y,z"
	if len(in) <= clauseSplitThreshold {
		t.Fatalf("test input must exceed threshold, len=%d", len(in))
	}
	got := Segment(in)
	if len(got) <= 1 {
		t.Fatalf("expected clause split into multiple chunks, got %v", got)
	}
	for i, c := range got {
		if c == "" {
			t.Fatalf("chunk %d is empty", i)
		}
		if strings.ContainsAny(c, ",;:") {
			t.Fatalf("chunk %d still contains clause delimiter: %q", i, c)
		}
	}
}

func TestSegmentLongRunOnWithoutClausesKept(t *testing.T) {
	in := strings.Repeat("word ", 30) // >100 chars, no delimiters at all
	got := Segment(in)
	if len(got) != 1 {
		t.Fatalf("expected single chunk when no clause boundaries exist, got %d", len(got))
	}
}

func TestSegmentEmpty(t *testing.T) {
	if got := Segment(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := Segment("   "); got != nil {
		t.Fatalf("expected nil for blank input, got %v", got)
	}
}

func TestSegmentPreservesOrderAndContent(t *testing.T) {
	in := "First part is here. Second part follows! Third part ends?"
	got := Segment(in)
	rejoined := strings.Join(got, " ")
	if rejoined != in {
		t.Fatalf("rejoined chunks differ from input:\n got %q\nwant %q", rejoined, in)
	}
}
