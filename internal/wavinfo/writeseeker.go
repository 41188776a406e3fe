package wavinfo

import (
	"errors"
	"io"
)

// writeSeeker is a memory-backed io.WriteSeeker, adapted from
// ausocean-av/exp/flac/decode.go so go-audio/wav.NewEncoder (which requires
// io.WriteSeeker for its RIFF size backpatch) can target an in-memory buffer
// instead of a temp file.
type writeSeeker struct {
	buf []byte
	pos int
}

// Bytes returns the bytes written to the writeSeeker so far.
func (ws *writeSeeker) Bytes() []byte {
	return ws.buf
}

func (ws *writeSeeker) Write(p []byte) (n int, err error) {
	minCap := ws.pos + len(p)
	if minCap > cap(ws.buf) {
		buf2 := make([]byte, len(ws.buf), minCap+len(p))
		copy(buf2, ws.buf)
		ws.buf = buf2
	}
	if minCap > len(ws.buf) {
		ws.buf = ws.buf[:minCap]
	}
	copy(ws.buf[ws.pos:], p)
	ws.pos += len(p)
	return len(p), nil
}

func (ws *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	newPos, offs := 0, int(offset)
	switch whence {
	case io.SeekStart:
		newPos = offs
	case io.SeekCurrent:
		newPos = ws.pos + offs
	case io.SeekEnd:
		newPos = len(ws.buf) + offs
	}
	if newPos < 0 {
		return 0, errors.New("wavinfo: negative seek result")
	}
	ws.pos = newPos
	return int64(newPos), nil
}
