// Package liveresp implements a minimal Carbon Black Cloud Live Response
// client: device discovery, session lifecycle, and the command surface
// needed to enumerate registry keys, list directories, and fetch files from
// a connected endpoint.
//
// Commands are asynchronous on the wire: the client issues a command, then
// polls until the backend reports completion. A session serializes its
// commands with a mutex since the backend handles one outstanding command
// per session. The client never retries on its own; failures surface to the
// caller, which decides whether to tolerate them.
package liveresp
