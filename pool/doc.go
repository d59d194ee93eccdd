// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-size, NUMA-aware frame pool backing the zero-copy RX/fill rings.
// A Slab is one contiguous allocation partitioned into equal frames; frame
// offsets move between pool, classifier and drainer without copying.
package pool
