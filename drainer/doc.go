// Package drainer consumes steered frames from the zero-copy RX ring,
// re-parses each into a FeatureRecord, tracks per-flow inter-arrival time,
// computes payload entropy, invokes the pluggable analysis callback, and
// optionally tees the frame to a capture sink before returning it to the
// fill ring.
package drainer
