/*
NAME
  packet.go - reassembles SPU fragments from the PS demuxer into complete,
  size-prefixed SPU packets.

DESCRIPTION
  Per substream, fragments are concatenated until the growing buffer
  reaches the packet's declared total size (its first two bytes,
  big-endian). A single PES fragment may complete one packet and begin
  another, so the reassembler must drain each substream's buffer in a
  loop rather than assuming one fragment maps to one packet.

  Packets are yielded in disc order *across all substreams*, i.e. in the
  order their fragments were fed in, not grouped by substream. Downstream
  alignment pairs the n-th menu-flagged packet with the n-th detected
  page, so reordering here would break page mapping.

AUTHOR
  menuscan authors

LICENSE
  Copyright (c) 2026 the menuscan authors. Licensed under the MIT License,
  see LICENSE in the repository root.
*/

// Package spu reassembles, parses and decodes DVD Sub-Picture Unit
// packets: the RLE-compressed overlay bitmaps DVD menus use for button
// highlights.
package spu

import (
	"encoding/binary"

	"github.com/ausocean/utils/logging"

	"github.com/discvault/menuscan/psdemux"
)

// minPacketSize is the smallest value total_size can validly take: two
// bytes for itself and two for the control offset.
const minPacketSize = 4

// Packet is a complete, size-prefixed SPU unit as defined by the wire
// format: byte 0-1 total size, byte 2-3 control-sequence offset, followed
// by interlaced RLE bitmap data and then one or more control
// sub-sequences.
type Packet struct {
	SubstreamID   byte
	Raw           []byte
	ControlOffset int
}

// Valid reports whether p satisfies the packet invariants: total_size
// >= 4, 4 <= control_offset < total_size, and raw_bytes.len == total_size.
func (p Packet) Valid() bool {
	n := len(p.Raw)
	if n < minPacketSize || int(binary.BigEndian.Uint16(p.Raw[:2])) != n {
		return false
	}
	return p.ControlOffset >= minPacketSize && p.ControlOffset < n
}

// Reassembler concatenates per-substream fragment buffers into complete
// Packets, in the order fragments are fed.
type Reassembler struct {
	bufs map[byte][]byte
	log  logging.Logger
}

// NewReassembler returns a Reassembler that will log resync and drop
// events to log, if non-nil.
func NewReassembler(log logging.Logger) *Reassembler {
	return &Reassembler{bufs: make(map[byte][]byte), log: log}
}

// Feed appends frag to its substream's buffer and returns every Packet
// that buffer completes, in the order they complete. A single fragment
// may complete zero, one, or several packets.
func (r *Reassembler) Feed(frag psdemux.Fragment) []Packet {
	buf := append(r.bufs[frag.SubstreamID], frag.Payload...)

	var out []Packet
	for {
		if len(buf) < 2 {
			break
		}
		total := int(binary.BigEndian.Uint16(buf[:2]))
		if total < minPacketSize {
			// A declared size that can't even hold the control offset
			// field is corrupt; we cannot know where the next packet
			// starts, so the remainder of this substream's buffer is
			// unrecoverable and is discarded.
			if r.log != nil {
				r.log.Log(logging.Debug, "spu: corrupt packet size, discarding buffer",
					"substream", frag.SubstreamID, "declared_size", total)
			}
			buf = nil
			break
		}
		if len(buf) < total {
			// Not enough bytes yet; wait for the next fragment.
			break
		}

		raw := buf[:total]
		pkt := Packet{
			SubstreamID:   frag.SubstreamID,
			Raw:           append([]byte(nil), raw...),
			ControlOffset: int(binary.BigEndian.Uint16(raw[2:4])),
		}
		if pkt.Valid() {
			out = append(out, pkt)
		} else if r.log != nil {
			r.log.Log(logging.Debug, "spu: dropping packet failing invariants",
				"substream", frag.SubstreamID, "size", total, "control_offset", pkt.ControlOffset)
		}

		buf = buf[total:]
	}

	if len(buf) == 0 {
		delete(r.bufs, frag.SubstreamID)
	} else {
		r.bufs[frag.SubstreamID] = buf
	}
	return out
}

// Drain logs (at debug level) any substream buffers left incomplete once
// no more fragments will arrive; such trailing data is dropped.
func (r *Reassembler) Drain() {
	for sub, buf := range r.bufs {
		if len(buf) == 0 {
			continue
		}
		if r.log != nil {
			r.log.Log(logging.Debug, "spu: dropping incomplete trailing packet",
				"substream", sub, "buffered_bytes", len(buf))
		}
	}
	r.bufs = make(map[byte][]byte)
}

// ReassembleAll is a convenience wrapper that feeds every fragment in
// frags through a fresh Reassembler and returns all completed Packets in
// disc order.
func ReassembleAll(frags []psdemux.Fragment, log logging.Logger) []Packet {
	r := NewReassembler(log)
	var out []Packet
	for _, f := range frags {
		out = append(out, r.Feed(f)...)
	}
	r.Drain()
	return out
}
