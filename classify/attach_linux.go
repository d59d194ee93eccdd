//go:build linux

// File: classify/attach_linux.go
// Author: momentics <momentics@gmail.com>
//
// Real NIC attach via an XDP program loaded through github.com/cilium/ebpf,
// grounded on the BTF/link management pattern of the jra3-system-agent
// retrieval example's CO-RE manager. The loaded program only ever returns
// XDP_PASS: it exists to prove real in-kernel attach/detach at the NIC hook
// (spec §6 "attach without disrupting existing connections" /
// "detach leaving no residual state"), while the actual parse, sample,
// counter and steer decision of spec §4.2 runs in Go over frames read from
// an AF_PACKET ring on the same interface (see xdp/rxring_linux.go) — this
// keeps the hot-path logic in one testable place instead of split across a
// verifier-constrained in-kernel program and its Go counterpart.

package classify

import (
	"fmt"
	"net"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/cilium/ebpf/link"
)

const xdpActionPass = 2 // XDP_PASS

// XDPAttacher attaches a pass-through XDP program to an interface, proving
// real kernel-hook binding without taking over packet delivery from the Go
// fast path.
type XDPAttacher struct {
	prog *ebpf.Program
	link link.Link
}

// NewXDPAttacher constructs an attacher; the program is compiled lazily on
// first Attach so that constructing one in a test environment without
// CAP_BPF does not fail.
func NewXDPAttacher() *XDPAttacher {
	return &XDPAttacher{}
}

func (a *XDPAttacher) Attach(iface string, queueIDs []int, c *Classifier) error {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return fmt.Errorf("interface %q: %w", iface, err)
	}

	spec := &ebpf.ProgramSpec{
		Name: "pe_passthrough",
		Type: ebpf.XDP,
		Instructions: asm.Instructions{
			asm.Mov.Imm(asm.R0, xdpActionPass),
			asm.Return(),
		},
		License: "GPL",
	}

	prog, err := ebpf.NewProgram(spec)
	if err != nil {
		return fmt.Errorf("load xdp program: %w", err)
	}

	lk, err := link.AttachXDP(link.XDPOptions{
		Program:   prog,
		Interface: ifi.Index,
	})
	if err != nil {
		prog.Close()
		return fmt.Errorf("attach xdp to %q: %w", iface, err)
	}

	a.prog = prog
	a.link = lk
	return nil
}

func (a *XDPAttacher) Detach() error {
	var linkErr, progErr error
	if a.link != nil {
		linkErr = a.link.Close()
		a.link = nil
	}
	if a.prog != nil {
		progErr = a.prog.Close()
		a.prog = nil
	}
	if linkErr != nil {
		return linkErr
	}
	return progErr
}
