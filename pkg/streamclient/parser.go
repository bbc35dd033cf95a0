package streamclient

import "bytes"

// Event is one parsed server-sent event frame.
type Event struct {
	Name string
	Data []byte
}

// frameParser incrementally extracts SSE frames from a byte stream. Frames
// may arrive split across reads; bytes are buffered until a complete block
// terminated by a blank line has accumulated.
type frameParser struct {
	buf []byte
}

var frameSep = []byte("\n\n")

// Feed appends chunk to the internal buffer and returns every complete
// frame now available. Blocks without both an event name and a data line
// are dropped.
func (p *frameParser) Feed(chunk []byte) []Event {
	p.buf = append(p.buf, chunk...)
	var events []Event
	for {
		idx := bytes.Index(p.buf, frameSep)
		if idx < 0 {
			return events
		}
		block := p.buf[:idx]
		p.buf = p.buf[idx+len(frameSep):]
		if ev, ok := parseBlock(block); ok {
			events = append(events, ev)
		}
	}
}

func parseBlock(block []byte) (Event, bool) {
	var ev Event
	var data [][]byte
	for _, line := range bytes.Split(block, []byte("\n")) {
		switch {
		case bytes.HasPrefix(line, []byte("event: ")):
			ev.Name = string(line[len("event: "):])
		case bytes.HasPrefix(line, []byte("data: ")):
			data = append(data, line[len("data: "):])
		}
	}
	if ev.Name == "" || data == nil {
		return Event{}, false
	}
	// Multi-line data fields join with a newline, per the SSE format.
	ev.Data = bytes.Join(data, []byte("\n"))
	return ev, true
}
