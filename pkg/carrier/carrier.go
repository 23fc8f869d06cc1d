// carrier.go - Hide a byte payload in the low bit of each color channel.
// The frame is magic + version + little-endian length + MD5 of the payload,
// followed by the payload itself, written one bit per R/G/B sample in
// row-major pixel order. Alpha is never touched.
package carrier

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
)

const (
	magic      = "PNXB"
	version    = 1
	headerSize = len(magic) + 1 + 4 + md5.Size
)

var (
	ErrNoPayload = errors.New("carrier: no payload found")
	ErrChecksum  = errors.New("carrier: payload checksum mismatch")
	ErrCapacity  = errors.New("carrier: payload exceeds image capacity")
)

// Capacity returns how many payload bytes fit into an image with bounds r.
func Capacity(r image.Rectangle) int {
	return max(r.Dx()*r.Dy()*3/8-headerSize, 0)
}

// Embed writes payload into the low bits of dst. Pixels past the end of the
// frame keep their values.
func Embed(dst *image.NRGBA, payload []byte) error {
	if n, c := len(payload), Capacity(dst.Bounds()); n > c {
		return fmt.Errorf("%w: %d bytes, room for %d", ErrCapacity, n, c)
	}

	frame := make([]byte, headerSize+len(payload))
	copy(frame, magic)
	frame[len(magic)] = version
	binary.LittleEndian.PutUint32(frame[len(magic)+1:], uint32(len(payload)))
	sum := md5.Sum(payload)
	copy(frame[len(magic)+5:], sum[:])
	copy(frame[headerSize:], payload)

	s := samples{img: dst}
	for i, b := range frame {
		for bit := 0; bit < 8; bit++ {
			off := s.offset(i*8 + bit)
			v := (b >> (7 - bit)) & 1
			dst.Pix[off] = dst.Pix[off]&^1 | v
		}
	}
	return nil
}

// Extract reads a payload previously written by Embed.
func Extract(src image.Image) ([]byte, error) {
	img := NRGBA(src)
	s := samples{img: img}
	capacity := Capacity(img.Bounds())
	if capacity <= 0 {
		return nil, ErrNoPayload
	}

	header := s.read(0, headerSize)
	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return nil, ErrNoPayload
	}
	if header[len(magic)] != version {
		return nil, fmt.Errorf("carrier: unsupported frame version %d", header[len(magic)])
	}

	n := int(binary.LittleEndian.Uint32(header[len(magic)+1:]))
	if n > capacity {
		return nil, fmt.Errorf("%w: declared length %d exceeds capacity %d", ErrNoPayload, n, capacity)
	}

	payload := s.read(headerSize, n)
	sum := md5.Sum(payload)
	if !bytes.Equal(sum[:], header[len(magic)+5:headerSize]) {
		return nil, ErrChecksum
	}
	return payload, nil
}

// NRGBA returns img as an *image.NRGBA, converting when needed. Opaque pixels
// convert exactly, so the low bits survive.
func NRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}

// samples maps a sample index to an offset in Pix, skipping alpha.
type samples struct {
	img *image.NRGBA
}

func (s samples) offset(n int) int {
	b := s.img.Bounds()
	p, c := n/3, n%3
	return s.img.PixOffset(b.Min.X+p%b.Dx(), b.Min.Y+p/b.Dx()) + c
}

// read returns n bytes starting at byte index start of the frame.
func (s samples) read(start, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		var b byte
		for bit := 0; bit < 8; bit++ {
			b = b<<1 | s.img.Pix[s.offset((start+i)*8+bit)]&1
		}
		out[i] = b
	}
	return out
}
