/*
NAME
  control.go - parses the date-delayed control sub-sequences of an SPU
  packet.

DESCRIPTION
  Beginning at the packet's control_offset, the control area is a linked
  list of date-delayed sub-sequences: each starts with a 2-byte delay and
  a 2-byte offset to the next sub-sequence, followed by commands
  terminated by 0xFF. Command 0x00 marks the overlay as a menu ("force
  display") rather than a timed subtitle; 0x05 carries the display
  rectangle; 0x06 carries the two interlaced bitmap field offsets. A
  packet missing the menu flag, the rectangle, or the field offsets is
  not a usable menu highlight and is rejected.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

package spu

import (
	"encoding/binary"

	"github.com/discvault/menuscan/geom"
)

// FrameWidth and FrameHeight are the PAL/NTSC DVD video raster
// dimensions bounding every valid SPU display rectangle and, more
// generally, the pixel space the clustering and gutter-detection
// stages reason about for a menu page.
const (
	FrameWidth  = 720
	FrameHeight = 576
)

// Control is the parsed control sequence of an SPU packet: the display
// rectangle, the two interlaced bitmap field offsets (relative to the
// start of the packet), and whether this is a menu ("force display")
// overlay.
type Control struct {
	DisplayRect  geom.Rect
	Field1Offset int
	Field2Offset int
	IsMenu       bool
}

// ParseControl walks the control sub-sequences of pkt starting at
// pkt.ControlOffset and returns the parsed Control. It returns false if
// the packet lacks the menu flag, the display rectangle, or the bitmap
// field offsets, or if the rectangle is out of bounds or empty -- any of
// which make the packet unusable for menu highlight decoding.
func ParseControl(pkt Packet) (Control, bool) {
	raw := pkt.Raw
	pos := pkt.ControlOffset

	var ctrl Control
	var haveRect, haveOffsets bool
	visited := make(map[int]bool)

	for !visited[pos] {
		visited[pos] = true
		if pos+4 > len(raw) {
			break
		}
		next := int(binary.BigEndian.Uint16(raw[pos+2:]))

		cmdPos := pos + 4
		stop := false
		for cmdPos < len(raw) && !stop {
			cmd := raw[cmdPos]
			cmdPos++
			switch cmd {
			case 0xFF:
				stop = true
			case 0x00:
				ctrl.IsMenu = true
			case 0x01, 0x02:
				// Display start/stop: irrelevant for a static menu bitmap.
			case 0x03:
				cmdPos += 2 // Palette index mapping: not required for geometry.
			case 0x04:
				cmdPos += 2 // Alpha mapping: not required for geometry.
			case 0x05:
				if cmdPos+6 > len(raw) {
					return Control{}, false
				}
				ctrl.DisplayRect = decodeRect(raw[cmdPos : cmdPos+6])
				haveRect = true
				cmdPos += 6
			case 0x06:
				if cmdPos+4 > len(raw) {
					return Control{}, false
				}
				ctrl.Field1Offset = int(binary.BigEndian.Uint16(raw[cmdPos:]))
				ctrl.Field2Offset = int(binary.BigEndian.Uint16(raw[cmdPos+2:]))
				haveOffsets = true
				cmdPos += 4
			default:
				// Unknown command: stop parsing this sub-sequence.
				stop = true
			}
		}

		if next == pos || next >= len(raw) {
			break
		}
		pos = next
	}

	if !ctrl.IsMenu || !haveRect || !haveOffsets {
		return Control{}, false
	}
	if !validDisplayRect(ctrl.DisplayRect) {
		return Control{}, false
	}
	if ctrl.Field1Offset >= pkt.ControlOffset || ctrl.Field2Offset >= pkt.ControlOffset {
		return Control{}, false
	}
	return ctrl, true
}

// decodeRect unpacks the six bytes of a 0x05 command into a Rect. x1, x2,
// y1, y2 are each packed as 12-bit fields across the six bytes:
// byte0 = x1[11:4], byte1 = x1[3:0]<<4 | x2[11:8], byte2 = x2[7:0],
// byte3 = y1[11:4], byte4 = y1[3:0]<<4 | y2[11:8], byte5 = y2[7:0].
func decodeRect(b []byte) geom.Rect {
	x1 := (int(b[0]) << 4) | (int(b[1]) >> 4)
	x2 := ((int(b[1]) & 0x0F) << 8) | int(b[2])
	y1 := (int(b[3]) << 4) | (int(b[4]) >> 4)
	y2 := ((int(b[4]) & 0x0F) << 8) | int(b[5])
	return geom.Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// validDisplayRect checks the display-rectangle bounds: 0 <= x1 <= x2 < 720,
// 0 <= y1 <= y2 < 576, and the rectangle is non-empty.
func validDisplayRect(r geom.Rect) bool {
	if r.X1 < 0 || r.Y1 < 0 {
		return false
	}
	if r.X1 > r.X2 || r.Y1 > r.Y2 {
		return false
	}
	if r.X2 >= FrameWidth || r.Y2 >= FrameHeight {
		return false
	}
	return true
}
