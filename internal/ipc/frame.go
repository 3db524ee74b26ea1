package ipc

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize is the largest accepted frame body.
const MaxFrameSize = 1 << 20

// FrameError reports a frame whose declared length is out of range.
type FrameError struct {
	Size uint32
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame of %d bytes exceeds limit of %d", e.Size, MaxFrameSize)
}

// WriteFrame writes payload with its length prefix.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return &FrameError{Size: uint32(len(payload))}
	}
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame body. A clean EOF before the length prefix is
// returned as io.EOF.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if size > MaxFrameSize {
		return nil, &FrameError{Size: size}
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}
