// Package concurrency provides the lock-free primitives shared by the
// classifier and drainer: the RingBuffer used for the RX ring and fill ring
// of the zero-copy transport (spec §4.3).
package concurrency
