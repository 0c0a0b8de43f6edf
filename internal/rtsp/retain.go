package rtsp

import (
	"sync"
	"time"

	"github.com/pion/rtp"
)

// RetainedPacket is one sent RTP packet held for possible retransmission.
type RetainedPacket struct {
	// Stream is the payload stream index the packet was sent on.
	Stream int
	// SequenceNumber is the packet's RTP sequence number.
	SequenceNumber uint16
	// SentAt is when the packet was forwarded to clients.
	SentAt time.Time
	// Packet is the packet itself.
	Packet *rtp.Packet
}

// RetentionBuffer keeps recently sent RTP packets for the configured
// window so they can be resent on reported loss. Packets older than the
// window are evicted as new ones arrive; the buffer never grows beyond
// what the window and the send rate imply.
type RetentionBuffer struct {
	mu      sync.Mutex
	window  time.Duration
	packets []RetainedPacket
}

// NewRetentionBuffer creates a buffer retaining packets for window.
func NewRetentionBuffer(window time.Duration) *RetentionBuffer {
	return &RetentionBuffer{window: window}
}

// Window returns the retention window.
func (b *RetentionBuffer) Window() time.Duration { return b.window }

// Add retains one sent packet, evicting everything that left the window.
func (b *RetentionBuffer) Add(stream int, pkt *rtp.Packet, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictLocked(now)
	b.packets = append(b.packets, RetainedPacket{
		Stream:         stream,
		SequenceNumber: pkt.SequenceNumber,
		SentAt:         now,
		Packet:         pkt,
	})
}

// Len returns the number of packets currently retained.
func (b *RetentionBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.packets)
}

// Lookup returns the retained packet with the given stream index and
// sequence number, if it is still inside the window at now.
func (b *RetentionBuffer) Lookup(stream int, seq uint16, now time.Time) (RetainedPacket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.evictLocked(now)
	// Loss reports reference recent packets; scan newest first.
	for i := len(b.packets) - 1; i >= 0; i-- {
		p := b.packets[i]
		if p.Stream == stream && p.SequenceNumber == seq {
			return p, true
		}
	}
	return RetainedPacket{}, false
}

// evictLocked drops packets whose retention window elapsed before now.
// Packets are appended in send order, so eviction only ever trims the
// front.
func (b *RetentionBuffer) evictLocked(now time.Time) {
	cutoff := now.Add(-b.window)
	i := 0
	for i < len(b.packets) && b.packets[i].SentAt.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.packets = append(b.packets[:0], b.packets[i:]...)
	}
}
