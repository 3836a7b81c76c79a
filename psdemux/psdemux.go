/*
NAME
  psdemux.go - scans MPEG-2 Program Stream bytes for private-stream-1
  (SPU) payload fragments.

DESCRIPTION
  The menu-carrying VOBs authored onto home DVDs are plain MPEG-2 Program
  Streams. This demuxer walks the pack/PES framing and yields every
  private-stream-1 (stream_id 0xBD) payload fragment whose first byte (the
  DVD substream ID) falls in the SPU range [0x20, 0x3F]. Video, audio,
  padding and system-header streams are skipped by their declared length.

  Unlike an MPEG-TS demuxer (fixed 188-byte packets), PS framing is
  variable-length throughout, so resynchronisation on a truncated or
  corrupt pack must rescan for the next start code rather than stepping by
  a fixed stride.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package psdemux demuxes an MPEG-2 Program Stream into private-stream-1
// (SPU) payload fragments, in file order.
package psdemux

import (
	"encoding/binary"

	"github.com/ausocean/utils/logging"
)

// SPU substream IDs occupy this range of the private-stream-1 payload's
// first byte.
const (
	minSubstreamID = 0x20
	maxSubstreamID = 0x3F
)

// Start codes and stream IDs used to walk PS/PES framing.
const (
	packStartCode   = 0x000001BA
	privateStream1  = 0xBD
	padStream       = 0xBE
	startCodePrefix = 0x000001
)

// Fragment is one private-stream-1 payload fragment carrying SPU data,
// along with the 6-bit DVD substream ID it was tagged with.
type Fragment struct {
	SubstreamID byte
	Payload     []byte
}

// Scan walks the Program Stream bytes in data and returns every SPU
// fragment in file order. It never copies data: each Fragment.Payload is
// a subslice of data. Scan is never fatal: truncated input yields a
// partial (possibly empty) result, and misaligned bytes between packs are
// skipped by resynchronising on the next start code.
func Scan(data []byte, log logging.Logger) []Fragment {
	var frags []Fragment
	i := 0
	for i+4 <= len(data) {
		code := be24and1(data[i:])
		switch {
		case code == packStartCode:
			next, ok := skipPackHeader(data, i)
			if !ok {
				if log != nil {
					log.Log(logging.Debug, "psdemux: truncated pack header, stopping", "offset", i)
				}
				return frags
			}
			i = next

		case isPESStart(data, i):
			streamID := data[i+3]
			length, hdrEnd, ok := pesLength(data, i)
			if !ok {
				if log != nil {
					log.Log(logging.Debug, "psdemux: truncated PES header, stopping", "offset", i)
				}
				return frags
			}
			payloadEnd := hdrEnd + length
			if payloadEnd > len(data) {
				if log != nil {
					log.Log(logging.Debug, "psdemux: truncated PES payload, stopping", "offset", i)
				}
				return frags
			}

			if streamID == privateStream1 {
				frag, ok := parsePrivateStream1(data[hdrEnd:payloadEnd])
				if ok {
					frags = append(frags, frag)
				}
			}
			// Video (0xE0-0xEF), audio (0xC0-0xDF), padding and system
			// header streams are skipped by their declared length; we've
			// already advanced past the payload below.
			i = payloadEnd

		default:
			// Misaligned bytes: resynchronise by scanning forward.
			resync := findNextStartCode(data, i+1)
			if resync < 0 {
				return frags
			}
			if log != nil {
				log.Log(logging.Debug, "psdemux: resynchronised", "from", i, "to", resync)
			}
			i = resync
		}
	}
	return frags
}

// parsePrivateStream1 reads the SPU substream ID from the first byte of a
// private-stream-1 PES payload and returns the remaining bytes as the
// fragment payload, if the substream ID is in the SPU range.
func parsePrivateStream1(payload []byte) (Fragment, bool) {
	if len(payload) < 1 {
		return Fragment{}, false
	}
	sub := payload[0]
	if sub < minSubstreamID || sub > maxSubstreamID {
		return Fragment{}, false
	}
	return Fragment{SubstreamID: sub, Payload: payload[1:]}, true
}

// isPESStart reports whether data[i:] begins a PES packet start code
// (0x000001 followed by a stream ID byte that isn't the pack or system
// header's own reserved codes).
func isPESStart(data []byte, i int) bool {
	if i+4 > len(data) {
		return false
	}
	if data[i] != 0 || data[i+1] != 0 || data[i+2] != 1 {
		return false
	}
	code := uint32(data[i+3])
	return code != 0xBA && code != 0xBB && code != 0xB9 // not pack, system header, or stream end
}

// pesLength returns the length of the PES payload (the declared packet
// length minus any header bytes inside it) and the offset at which the
// payload begins (immediately after the 2-byte length field and any
// stream-specific header data for private-stream-1/video/audio).
//
// For simplicity and because only the raw payload bytes of
// private-stream-1 matter to this demuxer, pesLength treats the PES
// header length conservatively: it reads the declared packet length, then
// if this is a stream type known to carry an optional header (private
// stream 1, audio, video), consumes the standard flags+header-length
// fields to locate the payload start.
func pesLength(data []byte, i int) (length, payloadStart int, ok bool) {
	if i+6 > len(data) {
		return 0, 0, false
	}
	streamID := data[i+3]
	length = int(binary.BigEndian.Uint16(data[i+4:]))
	pos := i + 6

	switch {
	case streamID == privateStream1 || (streamID >= 0xC0 && streamID <= 0xEF):
		// 2 flag bytes + 1 header-length byte, then optional fields.
		if pos+3 > len(data) {
			return 0, 0, false
		}
		hdrDataLen := int(data[pos+2])
		pos += 3 + hdrDataLen
	case streamID == padStream:
		// Padding stream: the whole declared length is padding.
	default:
		// System header or unknown stream: no further header to skip here;
		// length is relative to pos as read above.
	}

	// length is measured from the byte after the 2-byte length field
	// (i.e. from i+6), not from pos, per the PES spec.
	payloadStart = pos
	declaredEnd := i + 6 + length
	if declaredEnd < payloadStart {
		// Malformed: header claims to run past its own declared length.
		return 0, 0, false
	}
	return declaredEnd - payloadStart, payloadStart, true
}

// skipPackHeader advances past a 14-byte MPEG-2 pack header plus any
// stuffing bytes, returning the offset of the first byte after it.
func skipPackHeader(data []byte, i int) (int, bool) {
	const packHeaderSize = 14
	if i+packHeaderSize > len(data) {
		return 0, false
	}
	pos := i + packHeaderSize
	if pos > len(data) {
		return 0, false
	}
	// The last byte of the pack header's final byte holds the stuffing
	// length in its low 3 bits.
	stuffing := int(data[i+packHeaderSize-1] & 0x07)
	pos += stuffing
	if pos > len(data) {
		return 0, false
	}
	return pos, true
}

// findNextStartCode scans forward from i for the next 0x000001 start
// code prefix, returning its index or -1 if none remains.
func findNextStartCode(data []byte, i int) int {
	for ; i+3 <= len(data); i++ {
		if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 {
			return i
		}
	}
	return -1
}

func be24and1(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}
	if b[0] == 0 && b[1] == 0 && b[2] == 1 {
		return startCodePrefix<<8 | uint32(b[3])
	}
	return 0
}
