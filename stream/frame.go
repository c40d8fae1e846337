// Package stream broadcasts quantized water frames to websocket viewers and
// serves the Prometheus metrics endpoint.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/wake/arena"
)

// Frame layout, little endian:
//
//	magic "WK" | version u8 | bands u8 | tick u64 | n u16 | ships u16
//	n*n band bytes, row-major, grid Y down
//	per ship: id u32 | x f32 | y f32 | heading f32
const (
	frameVersion = 1
	headerSize   = 2 + 1 + 1 + 8 + 2 + 2
	shipSize     = 4 + 4 + 4 + 4
)

// ErrBadFrame is returned when decoding a malformed frame.
var ErrBadFrame = errors.New("malformed frame")

// Ship is a ship entry in a frame, in world coordinates.
type Ship struct {
	ID      uint32
	X, Y    float32
	Heading float32
}

// Frame is one decoded broadcast.
type Frame struct {
	Tick  uint64
	Size  int
	Bands int
	Cells []byte // Band index per cell
	Ships []Ship
}

// EncodeFrame appends the wire form of a frame to dst.
func EncodeFrame(dst []byte, tick uint64, n, bands int, cells []byte, ships []arena.ShipView) []byte {
	dst = append(dst, 'W', 'K', frameVersion, byte(bands))
	dst = binary.LittleEndian.AppendUint64(dst, tick)
	dst = binary.LittleEndian.AppendUint16(dst, uint16(n))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(ships)))
	dst = append(dst, cells...)
	for _, s := range ships {
		dst = binary.LittleEndian.AppendUint32(dst, s.ID)
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s.X))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s.Y))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s.Heading))
	}
	return dst
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(data []byte) (Frame, error) {
	if len(data) < headerSize || data[0] != 'W' || data[1] != 'K' {
		return Frame{}, fmt.Errorf("%w: bad header", ErrBadFrame)
	}
	if data[2] != frameVersion {
		return Frame{}, fmt.Errorf("%w: version %d", ErrBadFrame, data[2])
	}

	f := Frame{
		Bands: int(data[3]),
		Tick:  binary.LittleEndian.Uint64(data[4:12]),
		Size:  int(binary.LittleEndian.Uint16(data[12:14])),
	}
	ships := int(binary.LittleEndian.Uint16(data[14:16]))

	body := data[headerSize:]
	cells := f.Size * f.Size
	if len(body) != cells+ships*shipSize {
		return Frame{}, fmt.Errorf("%w: expected %d body bytes, got %d", ErrBadFrame, cells+ships*shipSize, len(body))
	}
	f.Cells = body[:cells]

	body = body[cells:]
	f.Ships = make([]Ship, ships)
	for i := range f.Ships {
		b := body[i*shipSize:]
		f.Ships[i] = Ship{
			ID:      binary.LittleEndian.Uint32(b[0:4]),
			X:       math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
			Y:       math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
			Heading: math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])),
		}
	}
	return f, nil
}
