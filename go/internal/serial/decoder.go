package serial

import (
	"bytes"

	"github.com/rs/zerolog/log"
)

// maxLineLength bounds a line that never sees a newline
const maxLineLength = 4096

// Decoder frames a byte stream into lines and classifies them. A line split
// across reads is held until its newline arrives. Not safe for concurrent use.
type Decoder struct {
	pending []byte

	// discarding is set while skipping the rest of an oversized line
	discarding bool
}

// Feed consumes p and returns the events of every line it completes, in order.
func (d *Decoder) Feed(p []byte) []Event {
	if d.discarding {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			return nil
		}
		d.discarding = false
		p = p[i+1:]
	}
	d.pending = append(d.pending, p...)

	var events []Event
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		if ev, ok := d.classify(d.pending[:i]); ok {
			events = append(events, ev)
		}
		d.pending = d.pending[i+1:]
	}

	if len(d.pending) > maxLineLength {
		log.Debug().Int("bytes", len(d.pending)).Msg("dropping oversized serial line")
		d.pending = nil
		d.discarding = true
	}
	// release the consumed prefix
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return events
}

// Flush classifies whatever partial line is buffered, e.g. at end of stream.
func (d *Decoder) Flush() (Event, bool) {
	line := d.pending
	d.pending = nil
	discarding := d.discarding
	d.discarding = false
	if len(line) == 0 || discarding {
		return Event{}, false
	}
	return d.classify(line)
}

func (d *Decoder) classify(line []byte) (Event, bool) {
	ev, ok := ParseLine(string(line))
	if !ok {
		log.Debug().Str("line", string(bytes.TrimSpace(line))).Msg("dropping malformed serial line")
	}
	return ev, ok
}
