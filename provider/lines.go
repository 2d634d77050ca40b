package provider

import (
	"bytes"
	"iter"
)

var (
	dataPrefix  = []byte("data:")
	eventPrefix = []byte("event:")
)

// Lines yields the non-blank lines of fragment with surrounding whitespace
// removed.
func Lines(fragment []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for line := range bytes.SplitSeq(fragment, []byte{'\n'}) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

// DataPayload returns the payload of an SSE "data:" line and true, or nil and
// false when line is not a data line.
func DataPayload(line []byte) ([]byte, bool) {
	if !bytes.HasPrefix(line, dataPrefix) {
		return nil, false
	}
	return bytes.TrimSpace(line[len(dataPrefix):]), true
}

// IsEventLine reports whether line is an SSE "event:" field.
func IsEventLine(line []byte) bool {
	return bytes.HasPrefix(line, eventPrefix)
}

// IsComment reports whether line is an SSE comment such as a keep-alive ping.
func IsComment(line []byte) bool {
	return len(line) > 0 && line[0] == ':'
}

// StripData removes an optional "data:" prefix from line.
func StripData(line []byte) []byte {
	if payload, ok := DataPayload(line); ok {
		return payload
	}
	return line
}
