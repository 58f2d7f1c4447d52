package manager

import (
	"time"

	"craftd/pkg/codec"
)

// HistoryCapacity bounds the per-instance console history. Once full, the
// oldest entry is evicted for every append.
const HistoryCapacity = 1000

// consoleHistory is a fixed-size ring of classified console entries with a
// monotonic sequence number per entry. Readers keep their own last-seen
// sequence and ask for everything after it. Not safe for concurrent use on
// its own; the owning instance's mutex guards it.
type consoleHistory struct {
	entries []codec.ConsoleEntry
	seq     uint64 // sequence of the most recent entry
	count   int    // total appended since last reset, may exceed cap
}

func newConsoleHistory() *consoleHistory {
	return &consoleHistory{
		entries: make([]codec.ConsoleEntry, HistoryCapacity),
	}
}

// reset drops all entries but keeps the sequence monotonic, so a consumer
// holding a cursor from a previous run never sees stale entries replayed.
func (h *consoleHistory) reset() {
	h.count = 0
}

func (h *consoleHistory) append(kind codec.EntryKind, message string) codec.ConsoleEntry {
	h.seq++
	e := codec.ConsoleEntry{
		Seq:       h.seq,
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Kind:      kind,
		Message:   message,
	}
	h.entries[h.count%HistoryCapacity] = e
	h.count++
	return e
}

func (h *consoleHistory) size() int {
	if h.count > HistoryCapacity {
		return HistoryCapacity
	}
	return h.count
}

// tail returns the most recent limit entries, oldest first, optionally
// filtered by kind ("" means all kinds).
func (h *consoleHistory) tail(limit int, kind codec.EntryKind) []codec.ConsoleEntry {
	n := h.size()
	start := h.count - n

	matched := make([]codec.ConsoleEntry, 0, n)
	for i := start; i < h.count; i++ {
		e := h.entries[i%HistoryCapacity]
		if kind != "" && e.Kind != kind {
			continue
		}
		matched = append(matched, e)
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// since returns the entries appended after the given cursor, oldest first,
// and the new cursor. Entries evicted before the cursor could catch up are
// simply skipped; the consumer only ever moves forward.
func (h *consoleHistory) since(cursor uint64) ([]codec.ConsoleEntry, uint64) {
	if h.seq <= cursor {
		return nil, h.seq
	}

	n := h.size()
	start := h.count - n

	var out []codec.ConsoleEntry
	for i := start; i < h.count; i++ {
		e := h.entries[i%HistoryCapacity]
		if e.Seq > cursor {
			out = append(out, e)
		}
	}
	return out, h.seq
}
