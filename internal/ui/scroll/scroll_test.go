package scroll

import "testing"

func TestAlignKeepsOffsetInsideMargin(t *testing.T) {
	if got := Align(5, 0, 10, 40); got != 0 {
		t.Fatalf("expected offset to stay 0, got %d", got)
	}
}

func TestAlignFollowsSelectionDown(t *testing.T) {
	got := Align(12, 0, 10, 40)
	if got <= 0 || 12 < got || 12 > got+9 {
		t.Fatalf("selection 12 not visible at offset %d", got)
	}
	if got := Align(39, 0, 10, 40); got != 30 {
		t.Fatalf("expected last line to pin to max offset, got %d", got)
	}
}

func TestAlignShortContent(t *testing.T) {
	if got := Align(3, 5, 10, 4); got != 0 {
		t.Fatalf("expected zero offset when everything fits, got %d", got)
	}
	if got := Align(0, 0, 0, 4); got != 0 {
		t.Fatalf("expected zero offset for empty window, got %d", got)
	}
}

func TestRevealShowsSpan(t *testing.T) {
	off := Reveal(20, 24, 0, 10, 50)
	if 20 < off || 24 > off+9 {
		t.Fatalf("span 20..24 not visible at offset %d", off)
	}
	if got := Reveal(3, 4, 0, 10, 50); got != 0 {
		t.Fatalf("expected visible span to keep offset, got %d", got)
	}
}
