// Package protocol implements the L2–L4 wire constants, flow hashing, and
// default traffic classification shared by the classifier fast path
// (package classify) and the drainer's feature extraction (package drainer).
//
// Designed for the packet preprocessing data plane: allocation-free where
// the classifier touches it, reusable by the drainer's richer re-parse.
package protocol
