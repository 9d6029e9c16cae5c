package telemetry

import (
	"bytes"
	"strings"
	"time"
	"unicode/utf8"
)

// Record is one parsed telemetry line. Fields are never mutated after
// construction; accessors hand out copies.
type Record struct {
	Level  Level
	Time   time.Time
	fields []string
}

// NewRecord builds a record from already-split fields. Empty fields are
// dropped so every record obeys the same invariant as parsed ones.
func NewRecord(level Level, at time.Time, fields []string) Record {
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			kept = append(kept, f)
		}
	}
	return Record{Level: level, Time: at, fields: kept}
}

// Fields returns a copy of the record payload.
func (r Record) Fields() []string {
	if len(r.fields) == 0 {
		return nil
	}
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// NumFields returns the number of payload fields.
func (r Record) NumFields() int {
	return len(r.fields)
}

// Field returns the i-th field, or "" when out of range.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.fields) {
		return ""
	}
	return r.fields[i]
}

// ParseLine turns one raw line from the wire into a record. The line must
// look like "<LEVEL>,<payload>"; anything else is noise and yields false.
// Invalid UTF-8 sequences are dropped rather than reported.
func ParseLine(raw []byte, now time.Time) (Record, bool) {
	raw = bytes.TrimSuffix(raw, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))

	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}

	tag, payload, ok := strings.Cut(text, ",")
	if !ok {
		return Record{}, false
	}
	level, ok := wireLevel(tag)
	if !ok {
		return Record{}, false
	}
	return NewRecord(level, now, strings.Split(payload, ",")), true
}

// wireLevel matches a level tag exactly as devices send it.
func wireLevel(tag string) (Level, bool) {
	for l := Debug; l <= Fatal; l++ {
		if levelNames[l] == tag {
			return l, true
		}
	}
	return Debug, false
}
