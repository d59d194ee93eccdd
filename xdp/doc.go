// Package xdp implements the zero-copy RX ring / fill ring transport
// (spec §4.3): a Queue pairs a lock-free ring of steered frame descriptors
// with a Slab-backed fill ring, and a Source drives frames from the wire
// into that Queue via whichever capture mechanism the platform and
// configuration support (AF_PACKET raw socket on Linux, libpcap elsewhere).
package xdp
