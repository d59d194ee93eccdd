// File: classify/attach.go
// Package classify
// Author: momentics <momentics@gmail.com>
//
// Attacher abstracts the platform-dependent NIC binding mechanism of spec
// §6: "attach without disrupting existing connections", "detach leaving no
// residual state", "multi-queue attachment with per-queue steering". The
// classifier's own parse/sample/verdict logic (classify.go, parser.go) is
// identical regardless of which Attacher is in play — only how frames
// arrive differs.

package classify

// Attacher binds a Classifier to a named network interface and queue set,
// invoking the classifier once per received frame until Detach is called.
type Attacher interface {
	// Attach begins classifying frames arriving on iface across queueIDs.
	// Must not disrupt existing connections on the interface.
	Attach(iface string, queueIDs []int, c *Classifier) error

	// Detach stops classification and leaves no residual state on the
	// interface (removes any loaded program / closes any raw sockets).
	Detach() error
}
