/*
NAME
  rle.go - decodes the interlaced run-length-encoded SPU bitmap.

DESCRIPTION
  The bitmap is stored as two interlaced fields: row 2k comes from field
  1, row 2k+1 from field 2. Each field is a nibble stream (big-endian
  within each byte) of (run, colour) tokens:

    - if the first nibble is nonzero with its top two bits set (>= 0x4),
      the token is 4 bits: run = nibble>>2, colour = nibble&0x3.
    - otherwise a second nibble is read to make an 8-bit code; if that
      code is still below 0x10 (the first nibble was zero) a third
      nibble is read to make 12 bits, and if that is still below 0x40 a
      fourth nibble extends it to 16 bits.
    - run = code>>2, colour = code&0x3. run == 0 means "fill to the end
      of the current row".

  The nibble pointer is byte-aligned after every row.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package spu

import (
	"fmt"

	"github.com/pkg/errors"
)

// DecodeBitmap decodes the RLE bitmap of pkt using the field offsets and
// display rectangle in ctrl. It returns an error if the nibble stream is
// corrupt or a run overflows its row by more than one pixel; callers
// should drop the packet on error and continue with the next one.
func DecodeBitmap(pkt Packet, ctrl Control) (*Bitmap, error) {
	width := ctrl.DisplayRect.Width()
	height := ctrl.DisplayRect.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("spu: empty display rectangle %v", ctrl.DisplayRect)
	}

	field1Rows := (height + 1) / 2
	field2Rows := height / 2

	rows1, err := decodeField(pkt.Raw, ctrl.Field1Offset, width, field1Rows)
	if err != nil {
		return nil, errors.Wrap(err, "spu: field 1")
	}
	rows2, err := decodeField(pkt.Raw, ctrl.Field2Offset, width, field2Rows)
	if err != nil {
		return nil, errors.Wrap(err, "spu: field 2")
	}

	pixels := make([]byte, width*height)
	for i := 0; i < field1Rows; i++ {
		copy(pixels[(2*i)*width:(2*i+1)*width], rows1[i])
	}
	for i := 0; i < field2Rows; i++ {
		copy(pixels[(2*i+1)*width:(2*i+2)*width], rows2[i])
	}

	return &Bitmap{
		OriginX: ctrl.DisplayRect.X1,
		OriginY: ctrl.DisplayRect.Y1,
		Width:   width,
		Height:  height,
		Pixels:  pixels,
	}, nil
}

// decodeField decodes `rows` scanlines of `width` pixels each from the
// nibble stream starting at byte offset `offset` within raw.
func decodeField(raw []byte, offset, width, rows int) ([][]byte, error) {
	if offset < 0 || offset >= len(raw) {
		return nil, fmt.Errorf("field offset %d out of range (packet size %d)", offset, len(raw))
	}

	nr := &nibbleReader{data: raw[offset:]}
	out := make([][]byte, rows)
	for r := 0; r < rows; r++ {
		row := make([]byte, width)
		col := 0
		for col < width {
			run, color, ok := nr.readToken()
			if !ok {
				return nil, fmt.Errorf("corrupt nibble stream at row %d, column %d", r, col)
			}
			if run == 0 {
				run = width - col
			}
			if col+run > width+1 {
				return nil, fmt.Errorf("run of %d overflows row %d (width %d) at column %d", run, r, width, col)
			}
			end := col + run
			if end > width {
				end = width
			}
			for ; col < end; col++ {
				row[col] = byte(color)
			}
		}
		out[r] = row
		nr.alignByte()
	}
	return out, nil
}

// nibbleReader reads sequential 4-bit nibbles, big-endian within each
// byte, from a byte slice.
type nibbleReader struct {
	data []byte
	pos  int // nibble index: byte pos/2, high nibble if pos is even
}

func (n *nibbleReader) nextNibble() (int, bool) {
	byteIdx := n.pos / 2
	if byteIdx >= len(n.data) {
		return 0, false
	}
	b := n.data[byteIdx]
	n.pos++
	if n.pos%2 == 1 {
		return int(b >> 4), true
	}
	return int(b & 0x0F), true
}

// alignByte advances to the start of the next byte if the reader is
// currently mid-byte.
func (n *nibbleReader) alignByte() {
	if n.pos%2 != 0 {
		n.pos++
	}
}

// readToken decodes one (run, colour) token using the nested nibble
// escalation described above.
func (n *nibbleReader) readToken() (run, color int, ok bool) {
	code, got := n.nextNibble()
	if !got {
		return 0, 0, false
	}
	if code < 0x4 {
		n2, got := n.nextNibble()
		if !got {
			return 0, 0, false
		}
		code = code<<4 | n2
		if code < 0x10 {
			n3, got := n.nextNibble()
			if !got {
				return 0, 0, false
			}
			code = code<<4 | n3
			if code < 0x40 {
				n4, got := n.nextNibble()
				if !got {
					return 0, 0, false
				}
				code = code<<4 | n4
			}
		}
	}
	return code >> 2, code & 0x3, true
}
