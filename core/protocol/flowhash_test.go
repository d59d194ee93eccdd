package protocol

import (
	"testing"

	"github.com/momentics/packetengine/api"
)

func TestFlowHash_SymmetricUnderDirectionReversal(t *testing.T) {
	srcIP := uint32(0x0A000001)
	dstIP := uint32(0x0A000002)
	srcPort := uint16(40000)
	dstPort := uint16(53)

	forward := FlowHash(api.ProtoUDP, srcIP, dstIP, srcPort, dstPort)
	reverse := FlowHash(api.ProtoUDP, dstIP, srcIP, dstPort, srcPort)

	if forward != reverse {
		t.Fatalf("flow hash not symmetric: forward=%d reverse=%d", forward, reverse)
	}
}

func TestFlowHash_DiffersAcrossFlows(t *testing.T) {
	a := FlowHash(api.ProtoUDP, 0x0A000001, 0x0A000002, 40000, 53)
	b := FlowHash(api.ProtoUDP, 0x0A000001, 0x0A000003, 40000, 53)
	if a == b {
		t.Fatalf("expected different hashes for different destination IPs")
	}
}

func TestClassifyTag(t *testing.T) {
	cases := []struct {
		name     string
		proto    uint8
		srcPort  uint16
		dstPort  uint16
		expected api.TrafficClass
	}{
		{"dns", api.ProtoUDP, 40000, 53, api.TrafficPriority},
		{"https", api.ProtoTCP, 51000, 443, api.TrafficPriority},
		{"both ephemeral", api.ProtoTCP, 50000, 50001, api.TrafficSuspicious},
		{"icmp", api.ProtoICMP, 0, 0, api.TrafficSuspicious},
		{"normal tcp", api.ProtoTCP, 40000, 8080, api.TrafficNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyTag(tc.proto, tc.srcPort, tc.dstPort)
			if got != tc.expected {
				t.Fatalf("ClassifyTag(%d,%d,%d) = %v, want %v", tc.proto, tc.srcPort, tc.dstPort, got, tc.expected)
			}
		})
	}
}
