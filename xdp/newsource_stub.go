//go:build !linux
// +build !linux

// File: xdp/newsource_stub.go
// Author: momentics <momentics@gmail.com>
//
// Non-Linux platforms have no AF_PACKET raw socket; every Source is the
// libpcap-backed CopySource regardless of Config.ZeroCopyMode.
package xdp

// NewSource opens a libpcap live capture handle on iface. zeroCopy is
// accepted for signature parity with the Linux build but has no effect here.
func NewSource(iface string, zeroCopy bool, snaplen int) (Source, error) {
	return NewCopySource(iface, snaplen)
}
