//go:build linux
// +build linux

// File: xdp/newsource_linux.go
// Author: momentics <momentics@gmail.com>
//
// Platform dispatch for Source selection, isolated behind a build tag so the
// engine facade stays platform-neutral (spec §4.3a "Non-Linux builds fall
// back to a copy-based reader behind the same xdp.Queue interface").
package xdp

import "fmt"

// NewSource opens the best available capture mechanism for iface: an
// AF_PACKET raw socket when zeroCopy is requested, falling back to a libpcap
// live handle (matching Config.ZeroCopyMode=false, or when the caller lacks
// CAP_NET_RAW).
func NewSource(iface string, zeroCopy bool, snaplen int) (Source, error) {
	if zeroCopy {
		src, err := NewRawSocketSource(iface)
		if err == nil {
			return src, nil
		}
		fallback, fbErr := NewCopySource(iface, snaplen)
		if fbErr != nil {
			return nil, fmt.Errorf("xdp: raw socket failed: %w; pcap fallback failed: %w", err, fbErr)
		}
		return fallback, nil
	}
	return NewCopySource(iface, snaplen)
}
