package relay

import (
	"bytes"
	"strings"
)

const dataPrefix = "data: "

type FrameKind int

const (
	FrameData FrameKind = iota
	FrameComment
)

// Frame is one complete, non-blank line of an upstream event stream.
type Frame struct {
	Kind FrameKind
	Data string
}

// LineDecoder turns arbitrarily chunked upstream bytes into frames. Only
// complete lines are decoded, so multi-byte characters split across chunks
// survive intact. A decoder belongs to exactly one stream.
type LineDecoder struct {
	buf []byte
}

// Feed appends chunk and returns the frames for every line it completed.
// Lines that are neither comments nor "data: " records are dropped.
func (d *LineDecoder) Feed(chunk []byte) []Frame {
	d.buf = append(d.buf, chunk...)

	var frames []Frame
	start := 0
	for {
		i := bytes.IndexByte(d.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(d.buf[start : start+i]))
		start += i + 1

		switch {
		case line == "":
		case strings.HasPrefix(line, ":"):
			frames = append(frames, Frame{Kind: FrameComment, Data: line})
		case strings.HasPrefix(line, dataPrefix):
			frames = append(frames, Frame{Kind: FrameData, Data: line[len(dataPrefix):]})
		}
	}

	d.buf = append(d.buf[:0], d.buf[start:]...)
	return frames
}

// Pending returns the bytes of the unfinished trailing line.
func (d *LineDecoder) Pending() int {
	return len(d.buf)
}
