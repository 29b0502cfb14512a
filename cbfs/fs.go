// Package cbfs exposes one drive of a live-response session as a read-only
// fs.FS, so analysis code can treat the connected endpoint like a mounted
// image. Directory listings and file contents are fetched on demand; nothing
// is cached across calls.
//
// Windows endpoints use "\" as the remote separator and resolve names
// case-insensitively; other endpoints use "/" and exact matching, mirroring
// the endpoint's own filesystem semantics.
package cbfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// FS is a read-only view over one drive of a session.
type FS struct {
	ctx     context.Context
	session types.Session
	root    string // drive root without trailing separator, e.g. "C:"
	windows bool
}

// New mounts a drive (e.g. "C:\" or "/") of the session. The context bounds
// every remote call made through the returned filesystem.
func New(ctx context.Context, session types.Session, drive string) *FS {
	return &FS{
		ctx:     ctx,
		session: session,
		root:    strings.TrimRight(drive, `\/`),
		windows: session.OS() == types.OSWindows,
	}
}

// remotePath converts an fs-style slash path into the endpoint's native
// path under the mounted drive.
func (f *FS) remotePath(name string) string {
	sep := "/"
	if f.windows {
		sep = `\`
	}
	if name == "." {
		return f.root + sep
	}
	if f.windows {
		name = strings.ReplaceAll(name, "/", `\`)
	}
	return f.root + sep + name
}

func (f *FS) match(a, b string) bool {
	if f.windows {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// join appends one child name to a native remote path.
func (f *FS) join(parent, name string) string {
	sep := "/"
	if f.windows {
		sep = `\`
	}
	if strings.HasSuffix(parent, sep) {
		return parent + name
	}
	return parent + sep + name
}

// resolve converts an fs-style path into the endpoint's native path. On
// Windows every segment is matched case-insensitively against its parent's
// listing and canonicalized to the entry's casing, so the path sent to the
// backend always names a listed entry. Elsewhere the path maps verbatim.
func (f *FS) resolve(name string) (string, error) {
	if name == "." || !f.windows {
		return f.remotePath(name), nil
	}
	current := f.remotePath(".")
	for _, seg := range strings.Split(name, "/") {
		entries, err := f.session.ListDirectory(f.ctx, current)
		if err != nil {
			return "", err
		}
		found := ""
		for _, e := range entries {
			if strings.EqualFold(e.Name, seg) {
				found = e.Name
				break
			}
		}
		if found == "" {
			return "", fs.ErrNotExist
		}
		current = f.join(current, found)
	}
	return current, nil
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	info, remote, err := f.stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	if info.IsDir() {
		return &dir{fs: f, name: name, info: info}, nil
	}
	return &file{fs: f, name: name, remote: remote, info: info}, nil
}

// ReadDir implements fs.ReadDirFS.
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	remote, err := f.resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	listed, err := f.session.ListDirectory(f.ctx, remote)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	entries := make([]fs.DirEntry, 0, len(listed))
	for _, e := range listed {
		entries = append(entries, fs.FileInfoToDirEntry(newInfo(e)))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// ReadFile implements fs.ReadFileFS, fetching the whole file in one remote
// round trip once the path has resolved.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	remote, err := f.resolve(name)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	data, err := f.session.ReadFile(f.ctx, remote)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrInvalid}
	}
	info, _, err := f.stat(name)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: err}
	}
	return info, nil
}

// stat resolves a name by listing its parent, since the wire protocol has
// no dedicated stat command. It also returns the canonical remote path of
// the matched entry for later content fetches.
func (f *FS) stat(name string) (fs.FileInfo, string, error) {
	if name == "." {
		return newInfo(types.DirEntry{Name: ".", Dir: true}), f.remotePath("."), nil
	}
	parentRemote, err := f.resolve(path.Dir(name))
	if err != nil {
		return nil, "", err
	}
	entries, err := f.session.ListDirectory(f.ctx, parentRemote)
	if err != nil {
		return nil, "", err
	}
	base := path.Base(name)
	for _, e := range entries {
		if f.match(e.Name, base) {
			return newInfo(e), f.join(parentRemote, e.Name), nil
		}
	}
	return nil, "", fs.ErrNotExist
}

type fileInfo struct {
	name    string
	size    int64
	dir     bool
	modTime time.Time
}

func newInfo(e types.DirEntry) fileInfo {
	return fileInfo{name: e.Name, size: e.Size, dir: e.Dir, modTime: e.ModTime}
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return i.modTime }
func (i fileInfo) IsDir() bool        { return i.dir }
func (i fileInfo) Sys() any           { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

// file is a lazily fetched remote file handle. The full content is
// retrieved on the first Read, using the canonical remote path resolved
// at open time.
type file struct {
	fs     *FS
	name   string
	remote string
	info   fs.FileInfo
	r      *bytes.Reader
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }

func (f *file) Read(p []byte) (int, error) {
	if f.r == nil {
		data, err := f.fs.session.ReadFile(f.fs.ctx, f.remote)
		if err != nil {
			return 0, &fs.PathError{Op: "read", Path: f.name, Err: err}
		}
		f.r = bytes.NewReader(data)
	}
	return f.r.Read(p)
}

func (f *file) Close() error {
	f.r = nil
	return nil
}

// dir is a remote directory handle implementing fs.ReadDirFile.
type dir struct {
	fs      *FS
	name    string
	info    fs.FileInfo
	entries []fs.DirEntry
	listed  bool
	pos     int
}

func (d *dir) Stat() (fs.FileInfo, error) { return d.info, nil }

func (d *dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fmt.Errorf("is a directory")}
}

func (d *dir) Close() error { return nil }

func (d *dir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.listed {
		entries, err := d.fs.ReadDir(d.name)
		if err != nil {
			return nil, err
		}
		d.entries = entries
		d.listed = true
	}

	remaining := d.entries[d.pos:]
	if n <= 0 {
		d.pos = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.pos += n
	return remaining[:n], nil
}
