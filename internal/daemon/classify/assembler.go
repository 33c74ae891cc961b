package classify

import "strings"

// Assembler folds the lines of a plain-text log stream into records. A
// thoughts record keeps absorbing lines until another record starts or the
// stream goes idle; every other line is a record on its own.
type Assembler struct {
	pending []string
}

// Feed adds one line and returns the records it completed.
func (a *Assembler) Feed(line string) []string {
	line = strings.TrimRight(line, "\r\n")

	if a.pending != nil && !StartsRecord(line) {
		a.pending = append(a.pending, line)
		return nil
	}

	out := a.Flush()
	if m, ok := Classify(line); ok && m.Kind == KindThoughts {
		a.pending = []string{line}
		return out
	}
	return append(out, line)
}

// Flush returns the pending thoughts record, if any.
func (a *Assembler) Flush() []string {
	if a.pending == nil {
		return nil
	}
	record := strings.Join(a.pending, "\n")
	a.pending = nil
	return []string{record}
}

// Pending reports whether a thoughts record is waiting for more lines.
func (a *Assembler) Pending() bool {
	return a.pending != nil
}
