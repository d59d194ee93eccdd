package classify

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/momentics/packetengine/api"
)

// fakeCounters is a minimal, lock-free-enough Counters for tests.
type fakeCounters struct {
	mu     sync.Mutex
	values [api.StatCount]uint64
}

func (f *fakeCounters) Add(idx api.StatIndex, delta uint64) {
	f.mu.Lock()
	f.values[idx] += delta
	f.mu.Unlock()
}

func (f *fakeCounters) get(idx api.StatIndex) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[idx]
}

// fakeSteerer records every frame handed to it and can simulate a full ring.
type fakeSteerer struct {
	capacity int
	enqueued atomic.Int64
}

func (s *fakeSteerer) Enqueue(queueID uint32, frame api.Frame) bool {
	if s.capacity > 0 && int(s.enqueued.Load()) >= s.capacity {
		return false
	}
	s.enqueued.Add(1)
	return true
}

func buildEthernet(etherType uint16) []byte {
	b := make([]byte, 14)
	binary.BigEndian.PutUint16(b[12:14], etherType)
	return b
}

func buildIPv4(protocol uint8, srcIP, dstIP uint32, totalLen uint16, ttl uint8) []byte {
	b := make([]byte, 20)
	b[0] = 0x45 // version 4, ihl 5
	binary.BigEndian.PutUint16(b[2:4], totalLen)
	b[8] = ttl
	b[9] = protocol
	binary.BigEndian.PutUint32(b[12:16], srcIP)
	binary.BigEndian.PutUint32(b[16:20], dstIP)
	return b
}

func buildUDP(srcPort, dstPort uint16, payload []byte) []byte {
	b := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint16(b[0:2], srcPort)
	binary.BigEndian.PutUint16(b[2:4], dstPort)
	binary.BigEndian.PutUint16(b[4:6], uint16(8+len(payload)))
	copy(b[8:], payload)
	return b
}

func buildTCP(srcPort, dstPort uint16, flags uint8, window uint16, payload []byte) []byte {
	b := make([]byte, 20+len(payload))
	binary.BigEndian.PutUint16(b[0:2], srcPort)
	binary.BigEndian.PutUint16(b[2:4], dstPort)
	b[12] = 5 << 4 // data offset = 5 words
	b[13] = flags
	binary.BigEndian.PutUint16(b[14:16], window)
	copy(b[20:], payload)
	return b
}

func udpPacket(srcIP, dstIP uint32, srcPort, dstPort uint16, payload []byte) []byte {
	udp := buildUDP(srcPort, dstPort, payload)
	ip := buildIPv4(api.ProtoUDP, srcIP, dstIP, uint16(20+len(udp)), 64)
	eth := buildEthernet(0x0800)
	out := append(append(eth, ip...), udp...)
	return out
}

func tcpPacket(srcIP, dstIP uint32, srcPort, dstPort uint16, flags uint8, payload []byte) []byte {
	tcp := buildTCP(srcPort, dstPort, flags, 65535, payload)
	ip := buildIPv4(api.ProtoTCP, srcIP, dstIP, uint16(20+len(tcp)), 64)
	eth := buildEthernet(0x0800)
	out := append(append(eth, ip...), tcp...)
	return out
}

// rawFrame implements a minimal FrameSlab-less Frame wrapper for tests: it
// stores the bytes directly by implementing api.FrameSlab over one slot.
type rawSlab struct{ data []byte }

func (r *rawSlab) At(offset uint32, length uint16) []byte { return r.data[:length] }
func (r *rawSlab) FrameSize() int                          { return len(r.data) }
func (r *rawSlab) FrameCount() int                          { return 1 }
func (r *rawSlab) Release(api.Frame)                        {}

func frameOf(data []byte) api.Frame {
	slab := &rawSlab{data: data}
	return api.NewFrame(slab, 0, uint16(len(data)))
}

func defaultCfg() api.Config {
	cfg := api.DefaultConfig()
	return cfg
}

// Scenario 1: single UDP packet, default config (spec §8 scenario 1).
func TestClassify_SingleUDPPacket(t *testing.T) {
	stats := &fakeCounters{}
	steer := &fakeSteerer{}
	cfg := defaultCfg()
	c := New(stats, steer, func() api.Config { return cfg })

	data := udpPacket(0x0A000001, 0x0A000002, 40000, 53, make([]byte, 100))
	verdict := c.Classify(frameOf(data))

	if verdict != api.VerdictSteer {
		t.Fatalf("expected STEER verdict, got %v", verdict)
	}
	if got := stats.get(api.StatTotalPackets); got != 1 {
		t.Fatalf("total_packets = %d, want 1", got)
	}
	if got := stats.get(api.StatUDPPackets); got != 1 {
		t.Fatalf("udp_packets = %d, want 1", got)
	}
	if got := stats.get(api.StatSteeredPackets); got != 1 {
		t.Fatalf("steered_packets = %d, want 1", got)
	}
}

// Scenario 3: truncated IPv4 (Ethernet header only) must PASS + drop-count,
// never dereference past end.
func TestClassify_TruncatedFrame(t *testing.T) {
	stats := &fakeCounters{}
	steer := &fakeSteerer{}
	cfg := defaultCfg()
	c := New(stats, steer, func() api.Config { return cfg })

	data := buildEthernet(0x0800) // 14 bytes, no IPv4 payload at all
	verdict := c.Classify(frameOf(data))

	if verdict != api.VerdictPass {
		t.Fatalf("expected PASS, got %v", verdict)
	}
	if got := stats.get(api.StatDroppedPackets); got != 1 {
		t.Fatalf("dropped_packets = %d, want 1", got)
	}
	if got := stats.get(api.StatTotalPackets); got != 1 {
		t.Fatalf("total_packets = %d, want 1", got)
	}
}

// Malformed-frame corpus: every entry must PASS and must never panic (spec §8
// "Classifier safety").
func TestClassify_MalformedCorpus(t *testing.T) {
	corpus := map[string][]byte{
		"empty":                   {},
		"ethernet only":           buildEthernet(0x0800),
		"non-ipv4 ethertype":      buildEthernet(0x86DD), // IPv6
		"ipv4 header truncated":   append(buildEthernet(0x0800), []byte{0x45, 0, 0, 20}...),
		"bad ihl":                 append(buildEthernet(0x0800), badIHLHeader()...),
		"tcp header truncated":    append(append(buildEthernet(0x0800), buildIPv4(api.ProtoTCP, 1, 2, 24, 64)...), []byte{0, 1, 0, 2}...),
		"udp header truncated":    append(append(buildEthernet(0x0800), buildIPv4(api.ProtoUDP, 1, 2, 22, 64)...), []byte{0, 1}...),
	}

	for name, data := range corpus {
		t.Run(name, func(t *testing.T) {
			stats := &fakeCounters{}
			steer := &fakeSteerer{}
			cfg := defaultCfg()
			c := New(stats, steer, func() api.Config { return cfg })

			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("classify panicked on %q: %v", name, r)
					}
				}()
				verdict := c.Classify(frameOf(data))
				if verdict != api.VerdictPass {
					t.Fatalf("%s: expected PASS, got %v", name, verdict)
				}
			}()
		})
	}
}

func badIHLHeader() []byte {
	b := buildIPv4(api.ProtoUDP, 1, 2, 20, 64)
	b[0] = 0x44 // version 4, ihl 4 (< 5, invalid)
	return b
}

// Scenario 2: sampling stride 10 over 1000 identical packets should steer
// roughly 1-in-10 (allowing per-stripe jitter, spec §8 scenario 2).
func TestClassify_SamplingStride(t *testing.T) {
	stats := &fakeCounters{}
	steer := &fakeSteerer{}
	cfg := defaultCfg()
	cfg.SamplingStride = 10
	c := New(stats, steer, func() api.Config { return cfg })

	data := udpPacket(0x0A000001, 0x0A000002, 40000, 53, make([]byte, 64))
	for i := 0; i < 1000; i++ {
		c.Classify(frameOf(data))
	}

	steered := stats.get(api.StatSteeredPackets)
	if steered < 50 || steered > 150 {
		t.Fatalf("steered_packets = %d, want roughly 100 (50-150)", steered)
	}
	if got := stats.get(api.StatTotalPackets); got != 1000 {
		t.Fatalf("total_packets = %d, want 1000", got)
	}
}

// Scenario 6: mixed protocols with a filter mask (spec §8 scenario 6).
func TestClassify_ProtocolFilterMask(t *testing.T) {
	stats := &fakeCounters{}
	steer := &fakeSteerer{}
	cfg := defaultCfg()
	cfg.ProtocolFilterMask = api.ProtoMaskTCP | api.ProtoMaskUDP
	c := New(stats, steer, func() api.Config { return cfg })

	tcpData := tcpPacket(1, 2, 1000, 2000, 0x02, nil)
	udpData := udpPacket(1, 2, 1000, 2000, nil)
	icmpData := append(buildEthernet(0x0800), buildIPv4(api.ProtoICMP, 1, 2, 28, 64)...)
	icmpData = append(icmpData, make([]byte, 8)...)

	for i := 0; i < 100; i++ {
		c.Classify(frameOf(tcpData))
		c.Classify(frameOf(udpData))
		c.Classify(frameOf(icmpData))
	}

	if got := stats.get(api.StatTCPPackets); got != 100 {
		t.Fatalf("tcp_packets = %d, want 100", got)
	}
	if got := stats.get(api.StatUDPPackets); got != 100 {
		t.Fatalf("udp_packets = %d, want 100", got)
	}
	if got := stats.get(api.StatOtherPackets); got != 100 {
		t.Fatalf("other_packets = %d, want 100", got)
	}
	if got := stats.get(api.StatSteeredPackets); got != 200 {
		t.Fatalf("steered_packets = %d, want 200 (icmp filtered out)", got)
	}
}

// Ring overflow must fall back to PASS + dropped_packets, never DROP.
func TestClassify_RingFullNeverDrops(t *testing.T) {
	stats := &fakeCounters{}
	steer := &fakeSteerer{capacity: 1}
	cfg := defaultCfg()
	c := New(stats, steer, func() api.Config { return cfg })

	data := udpPacket(1, 2, 1000, 2000, nil)
	c.Classify(frameOf(data)) // fills capacity
	verdict := c.Classify(frameOf(data))

	if verdict != api.VerdictPass {
		t.Fatalf("expected PASS on ring-full, got %v", verdict)
	}
	if got := stats.get(api.StatDroppedPackets); got != 1 {
		t.Fatalf("dropped_packets = %d, want 1", got)
	}
}

func TestClassifier_SetPolicy(t *testing.T) {
	stats := &fakeCounters{}
	steer := &fakeSteerer{}
	cfg := defaultCfg()
	c := New(stats, steer, func() api.Config { return cfg })

	var called bool
	c.SetPolicy(func(protocol uint8, srcPort, dstPort uint16) api.TrafficClass {
		called = true
		return api.TrafficSuspicious
	})

	data := udpPacket(1, 2, 1000, 2000, nil)
	c.Classify(frameOf(data))

	if !called {
		t.Fatalf("expected custom policy to be invoked")
	}
}
