// Package types defines the shared API surface for the remote acquisition
// layer: typed errors with stable categories, the wire-level value model
// returned by live-response backends, and the Session interface that the
// registry and filesystem overlays consume.
//
// The registry view built on top of these types is logical, not structural:
// the backend returns string-encoded key listings, so there are no cell
// offsets, timestamps, or binary records to preserve.
//
// This package has no dependencies beyond the standard library.
package types
