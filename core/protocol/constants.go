// Package protocol
// Author: momentics <momentics@gmail.com>
//
// L2–L4 wire constants shared by the classifier's bounds-checked parser and
// the drainer's gopacket-based re-parser (spec §3, §4.2).

package protocol

const (
	EtherHeaderLen = 14
	EtherTypeIPv4  = 0x0800

	IPv4MinHeaderLen = 20
	IPv4Version      = 4

	TCPMinHeaderLen = 20
	UDPHeaderLen    = 8
)

// TCP flag bits (spec §3 "tcp_flags").
const (
	TCPFlagFIN = 1 << iota
	TCPFlagSYN
	TCPFlagRST
	TCPFlagPSH
	TCPFlagACK
	TCPFlagURG
	TCPFlagECE
	TCPFlagCWR
)

// Well-known service ports that classify as PRIORITY traffic (spec §4.2 step 5).
var PriorityPorts = map[uint16]struct{}{
	22:  {},
	53:  {},
	80:  {},
	443: {},
}

// EphemeralPortThreshold: ports above this are considered ephemeral/client-side
// (spec §4.2 step 5: "both endpoints ephemeral ⇒ SUSPICIOUS").
const EphemeralPortThreshold = 49151
