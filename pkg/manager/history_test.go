package manager

import (
	"fmt"
	"testing"

	"craftd/pkg/codec"
)

func TestHistoryAppendAndTail(t *testing.T) {
	h := newConsoleHistory()

	for i := 0; i < 10; i++ {
		h.append(codec.EntryInfo, fmt.Sprintf("line %d", i))
	}

	if h.size() != 10 {
		t.Fatalf("size = %d, want 10", h.size())
	}

	got := h.tail(3, "")
	if len(got) != 3 {
		t.Fatalf("tail(3) returned %d entries", len(got))
	}
	if got[0].Message != "line 7" || got[2].Message != "line 9" {
		t.Errorf("tail(3) = %q..%q, want line 7..line 9", got[0].Message, got[2].Message)
	}

	all := h.tail(0, "")
	if len(all) != 10 {
		t.Errorf("tail(0) returned %d entries, want all 10", len(all))
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := newConsoleHistory()

	total := HistoryCapacity + 50
	for i := 0; i < total; i++ {
		h.append(codec.EntryInfo, fmt.Sprintf("line %d", i))
	}

	if h.size() != HistoryCapacity {
		t.Fatalf("size = %d, want %d", h.size(), HistoryCapacity)
	}

	got := h.tail(0, "")
	if got[0].Message != "line 50" {
		t.Errorf("oldest retained = %q, want line 50", got[0].Message)
	}
	if got[len(got)-1].Message != fmt.Sprintf("line %d", total-1) {
		t.Errorf("newest retained = %q, want line %d", got[len(got)-1].Message, total-1)
	}
}

func TestHistoryKindFilter(t *testing.T) {
	h := newConsoleHistory()
	h.append(codec.EntryInfo, "a")
	h.append(codec.EntryError, "b")
	h.append(codec.EntryWarning, "c")
	h.append(codec.EntryError, "d")

	errs := h.tail(0, codec.EntryError)
	if len(errs) != 2 {
		t.Fatalf("error entries = %d, want 2", len(errs))
	}
	if errs[0].Message != "b" || errs[1].Message != "d" {
		t.Errorf("filtered = %q,%q, want b,d", errs[0].Message, errs[1].Message)
	}

	one := h.tail(1, codec.EntryError)
	if len(one) != 1 || one[0].Message != "d" {
		t.Errorf("tail(1, error) = %v, want just d", one)
	}
}

func TestHistorySinceCursor(t *testing.T) {
	h := newConsoleHistory()

	got, cursor := h.since(0)
	if got != nil || cursor != 0 {
		t.Fatalf("since on empty = %v, %d", got, cursor)
	}

	h.append(codec.EntryInfo, "a")
	h.append(codec.EntryInfo, "b")

	got, cursor = h.since(0)
	if len(got) != 2 {
		t.Fatalf("since(0) returned %d entries, want 2", len(got))
	}

	// No new entries, cursor stays put.
	got, next := h.since(cursor)
	if got != nil || next != cursor {
		t.Fatalf("since(%d) = %v, %d, want nil and same cursor", cursor, got, next)
	}

	h.append(codec.EntryInfo, "c")
	got, _ = h.since(cursor)
	if len(got) != 1 || got[0].Message != "c" {
		t.Errorf("since after append = %v, want just c", got)
	}
}

func TestHistoryResetKeepsSequence(t *testing.T) {
	h := newConsoleHistory()
	h.append(codec.EntryInfo, "old")
	_, cursor := h.since(0)

	h.reset()
	if h.size() != 0 {
		t.Fatalf("size after reset = %d, want 0", h.size())
	}

	e := h.append(codec.EntryInfo, "new")
	if e.Seq <= cursor {
		t.Errorf("seq after reset = %d, not past old cursor %d", e.Seq, cursor)
	}

	got, _ := h.since(cursor)
	if len(got) != 1 || got[0].Message != "new" {
		t.Errorf("since old cursor = %v, want just the new entry", got)
	}
}
