// File: classify/parser.go
// Package classify
// Author: momentics <momentics@gmail.com>
//
// Bounds-checked, allocation-free L2-L4 parsing for the classifier fast
// path (spec §4.2 steps 1-4). Every accessor checks length before reading;
// none of them ever slice past the end of the input or retain it.

package classify

import (
	"encoding/binary"

	"github.com/momentics/packetengine/core/protocol"
)

type ethernetHeader struct {
	etherType uint16
}

// parseEthernet bounds-checks a 14-byte Ethernet header and extracts the
// EtherType field (spec §4.2 step 1).
func parseEthernet(data []byte) (ethernetHeader, bool) {
	if len(data) < protocol.EtherHeaderLen {
		return ethernetHeader{}, false
	}
	return ethernetHeader{etherType: binary.BigEndian.Uint16(data[12:14])}, true
}

type ipv4Header struct {
	ihl      uint8 // header length in 32-bit words
	protocol uint8
	totalLen uint16
	ttl      uint8
	srcIP    uint32
	dstIP    uint32
}

// parseIPv4 bounds-checks the IPv4 header starting at data[0] (i.e. data is
// already sliced past the Ethernet header). Verifies version=4 and ihl>=5
// (spec §4.2 step 2).
func parseIPv4(data []byte) (ipv4Header, bool) {
	if len(data) < protocol.IPv4MinHeaderLen {
		return ipv4Header{}, false
	}
	versionIHL := data[0]
	version := versionIHL >> 4
	ihl := versionIHL & 0x0F
	if version != protocol.IPv4Version || ihl < 5 {
		return ipv4Header{}, false
	}
	headerLen := int(ihl) * 4
	if len(data) < headerLen {
		return ipv4Header{}, false
	}
	return ipv4Header{
		ihl:      ihl,
		protocol: data[9],
		totalLen: binary.BigEndian.Uint16(data[2:4]),
		ttl:      data[8],
		srcIP:    binary.BigEndian.Uint32(data[12:16]),
		dstIP:    binary.BigEndian.Uint32(data[16:20]),
	}, true
}

type tcpHeader struct {
	srcPort    uint16
	dstPort    uint16
	flags      uint8
	windowSize uint16
	headerLen  int
}

// parseTCP bounds-checks a TCP header (spec §4.2 step 4).
func parseTCP(data []byte) (tcpHeader, bool) {
	if len(data) < protocol.TCPMinHeaderLen {
		return tcpHeader{}, false
	}
	dataOffset := (data[12] >> 4) * 4
	if int(dataOffset) < protocol.TCPMinHeaderLen || len(data) < int(dataOffset) {
		return tcpHeader{}, false
	}
	return tcpHeader{
		srcPort:    binary.BigEndian.Uint16(data[0:2]),
		dstPort:    binary.BigEndian.Uint16(data[2:4]),
		flags:      data[13],
		windowSize: binary.BigEndian.Uint16(data[14:16]),
		headerLen:  int(dataOffset),
	}, true
}

type udpHeader struct {
	srcPort uint16
	dstPort uint16
	length  uint16
}

// parseUDP bounds-checks a UDP header (spec §4.2 step 4).
func parseUDP(data []byte) (udpHeader, bool) {
	if len(data) < protocol.UDPHeaderLen {
		return udpHeader{}, false
	}
	return udpHeader{
		srcPort: binary.BigEndian.Uint16(data[0:2]),
		dstPort: binary.BigEndian.Uint16(data[2:4]),
		length:  binary.BigEndian.Uint16(data[4:6]),
	}, true
}
