package trace

import "time"

// Entry is one measured hop.
type Entry struct {
	URL            string
	Begin          time.Time
	End            time.Time
	Duration       time.Duration
	FilterDuration *time.Duration
	HTTPStatus     int
}

// Finalize sets End and recomputes Duration from Begin.
func (e *Entry) Finalize(end time.Time) {
	e.End = end
	e.Duration = between(e.Begin, end)
}

// Summary is the top-level record of a hop and every hop nested inside it.
type Summary struct {
	Entry

	// Trace is ordered by Begin, oldest first.
	Trace []Entry

	// TruncationCount is the number of entries dropped to respect the header
	// size limit. Zero means none.
	TruncationCount int
}

// Truncated reports whether entries were ever dropped from this summary.
func (s *Summary) Truncated() bool {
	return s.TruncationCount > 0
}

// Insert places e before the first entry that began strictly later than e
// and returns its index. Entries with an equal begin stay ahead of e.
func (s *Summary) Insert(e Entry) int {
	for i := range s.Trace {
		if s.Trace[i].Begin.After(e.Begin) {
			s.Trace = append(s.Trace, Entry{})
			copy(s.Trace[i+1:], s.Trace[i:])
			s.Trace[i] = e
			return i
		}
	}
	s.Trace = append(s.Trace, e)
	return len(s.Trace) - 1
}

// DropLast removes the last trace entry and counts the removal.
// It returns false if there was nothing to remove.
func (s *Summary) DropLast() bool {
	if len(s.Trace) == 0 {
		return false
	}
	s.Trace = s.Trace[:len(s.Trace)-1]
	s.TruncationCount++
	return true
}

// between returns end - begin, clamped at zero.
func between(begin, end time.Time) time.Duration {
	d := end.Sub(begin)
	if d < 0 {
		return 0
	}
	return d
}
