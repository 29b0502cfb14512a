// Package registry exposes a remote endpoint's registry hierarchy as a
// read-only tree of keys and typed values, fetched on demand through a
// live-response session and cached per node.
//
// The tree is a logical reconstruction: the backend returns string-encoded
// key listings, so nodes carry no timestamps and values are normalized from
// textual wire records into typed payloads at access time.
//
// Every node fetches its listing at most once; a failed fetch is never
// cached, so retrying an accessor issues a fresh remote call. Distinct node
// instances for the same path are not deduplicated.
package registry
