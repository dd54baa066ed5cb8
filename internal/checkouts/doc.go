// Package checkouts inspects repository checkouts and classifies their lifecycle state.
//
// Inspector gathers facts from the filesystem and go-git; DetectState turns those facts into a
// CheckoutState without touching the disk.
package checkouts
