package liveresp

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// Session is one active live-response channel to a single endpoint. It
// implements types.Session. Commands are serialized: the backend handles
// one outstanding command per session, so concurrent callers queue on the
// session mutex.
type Session struct {
	c        *Client
	id       string
	deviceID int64
	os       types.OSType
	drives   []string

	mu     sync.Mutex
	closed bool
}

func newSession(c *Client, res *sessionResponse) *Session {
	return &Session{
		c:        c,
		id:       res.ID,
		deviceID: res.DeviceID,
		os:       types.OSType(res.SessionData.OSType),
		drives:   res.SessionData.Drives,
	}
}

// ID returns the backend session identifier.
func (s *Session) ID() string { return s.id }

// DeviceID returns the sensor this session is attached to.
func (s *Session) DeviceID() int64 { return s.deviceID }

// OS reports the endpoint operating system.
func (s *Session) OS() types.OSType { return s.os }

// Drives lists the endpoint drive roots reported at session start.
func (s *Session) Drives() []string {
	out := make([]string, len(s.drives))
	copy(out, s.drives)
	return out
}

// ListKeysAndValues enumerates one registry key on the endpoint.
func (s *Session) ListKeysAndValues(ctx context.Context, path string) (*types.KeyListing, error) {
	res, err := s.run(ctx, commandRequest{Name: cmdRegEnumKey, Path: path})
	if err != nil {
		return nil, err
	}

	listing := &types.KeyListing{
		SubKeys: res.SubKeys,
		Values:  make([]types.ValueRecord, 0, len(res.Values)),
	}
	for _, v := range res.Values {
		listing.Values = append(listing.Values, types.ValueRecord{
			Name: v.RegistryName,
			Data: v.RegistryData,
			Type: v.RegistryType,
		})
	}
	return listing, nil
}

// ListDirectory enumerates a filesystem directory on the endpoint.
func (s *Session) ListDirectory(ctx context.Context, path string) ([]types.DirEntry, error) {
	res, err := s.run(ctx, commandRequest{Name: cmdDirectoryList, Path: path})
	if err != nil {
		return nil, err
	}

	entries := make([]types.DirEntry, 0, len(res.Files))
	for _, f := range res.Files {
		entries = append(entries, types.DirEntry{
			Name:    f.Filename,
			Size:    f.Size,
			Dir:     hasAttribute(f.Attributes, "DIRECTORY"),
			ModTime: time.Unix(f.ModifyTime, 0).UTC(),
		})
	}
	return entries, nil
}

// ReadFile retrieves a file's full contents from the endpoint. The agent
// first stages the file, then the content is downloaded by file ID.
func (s *Session) ReadFile(ctx context.Context, path string) ([]byte, error) {
	res, err := s.run(ctx, commandRequest{Name: cmdGetFile, Path: path})
	if err != nil {
		return nil, err
	}
	if res.FileID == "" {
		return nil, fmt.Errorf("get file %q: backend returned no file id", path)
	}
	return s.c.raw(ctx, s.c.orgPath("/liveresponse/sessions/%s/files/%s/content", s.id, res.FileID))
}

// Close terminates the session on the backend. Further commands fail with
// types.ErrClosed.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.c.do(ctx, http.MethodDelete,
		s.c.orgPath("/liveresponse/sessions/%s", s.id), nil, nil)
}

// run issues one command and polls until the backend reports a terminal
// status. The session mutex is held for the whole exchange.
func (s *Session) run(ctx context.Context, req commandRequest) (*commandResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &types.Error{
			Kind: types.ErrKindState,
			Msg:  fmt.Sprintf("session %s is closed", s.id),
		}
	}

	var res commandResponse
	err := s.c.do(ctx, http.MethodPost,
		s.c.orgPath("/liveresponse/sessions/%s/commands", s.id), req, &res)
	if err != nil {
		return nil, fmt.Errorf("issue %q: %w", req.Name, err)
	}

	ticker := time.NewTicker(s.c.pollInterval)
	defer ticker.Stop()

	for !terminal(res.Status) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			err := s.c.do(ctx, http.MethodGet,
				s.c.orgPath("/liveresponse/sessions/%s/commands/%d", s.id, res.ID), nil, &res)
			if err != nil {
				return nil, fmt.Errorf("poll %q: %w", req.Name, err)
			}
		}
	}

	if res.Status != commandComplete {
		return nil, fmt.Errorf("%q on %q: command %s: %s",
			req.Name, req.Path, res.Status, res.Result)
	}
	return &res, nil
}

func terminal(status string) bool {
	switch status {
	case commandComplete, commandError, commandCanceled:
		return true
	}
	return false
}

func hasAttribute(attrs []string, want string) bool {
	for _, a := range attrs {
		if a == want {
			return true
		}
	}
	return false
}
