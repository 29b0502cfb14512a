package cbfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arpitjain799/dissect.target/pkg/types"
)

// fakeSession serves a canned endpoint filesystem keyed by native paths.
type fakeSession struct {
	os    types.OSType
	dirs  map[string][]types.DirEntry
	files map[string][]byte
}

func newWindowsSession() *fakeSession {
	mod := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)
	return &fakeSession{
		os: types.OSWindows,
		dirs: map[string][]types.DirEntry{
			`C:\`: {
				{Name: "Windows", Dir: true, ModTime: mod},
				{Name: "pagefile.sys", Size: 4096, ModTime: mod},
			},
			`C:\Windows`: {
				{Name: "System32", Dir: true, ModTime: mod},
				{Name: "notepad.exe", Size: 9, ModTime: mod},
			},
		},
		files: map[string][]byte{
			`C:\Windows\notepad.exe`: []byte("MZnotepad"),
			`C:\pagefile.sys`:        make([]byte, 4096),
		},
	}
}

func (s *fakeSession) ListKeysAndValues(context.Context, string) (*types.KeyListing, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeSession) ListDirectory(_ context.Context, path string) ([]types.DirEntry, error) {
	if entries, ok := s.dirs[path]; ok {
		return entries, nil
	}
	return nil, errors.New("no such directory")
}

func (s *fakeSession) ReadFile(_ context.Context, path string) ([]byte, error) {
	if data, ok := s.files[path]; ok {
		return data, nil
	}
	return nil, errors.New("no such file")
}

func (s *fakeSession) OS() types.OSType { return s.os }

func (s *fakeSession) Drives() []string { return []string{`C:\`} }

func (s *fakeSession) Close(context.Context) error { return nil }

func newTestFS() *FS {
	return New(context.Background(), newWindowsSession(), `C:\`)
}

func TestReadDirRoot(t *testing.T) {
	entries, err := newTestFS().ReadDir(".")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Sorted by filename per the fs.ReadDir contract.
	require.Equal(t, "Windows", entries[0].Name())
	require.True(t, entries[0].IsDir())
	require.Equal(t, "pagefile.sys", entries[1].Name())
	require.False(t, entries[1].IsDir())
}

func TestReadDirNested(t *testing.T) {
	entries, err := newTestFS().ReadDir("Windows")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "System32", entries[0].Name())
}

func TestOpenAndReadFile(t *testing.T) {
	fsys := newTestFS()

	f, err := fsys.Open("Windows/notepad.exe")
	require.NoError(t, err)
	defer f.Close()

	info, err := f.Stat()
	require.NoError(t, err)
	require.EqualValues(t, 9, info.Size())
	require.False(t, info.IsDir())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "MZnotepad", string(data))
}

func TestReadFileHelper(t *testing.T) {
	data, err := newTestFS().ReadFile("Windows/notepad.exe")
	require.NoError(t, err)
	require.Equal(t, "MZnotepad", string(data))
}

func TestCaseInsensitiveLookupOnWindows(t *testing.T) {
	fsys := newTestFS()

	info, err := fsys.Stat("windows/NOTEPAD.EXE")
	require.NoError(t, err)
	require.Equal(t, "notepad.exe", info.Name())
}

func TestCaseInsensitiveIntermediateSegments(t *testing.T) {
	// The fake session only answers exact-cased native paths, so these
	// succeed only if every segment is canonicalized to the listed entry's
	// casing before the backend is asked.
	fsys := newTestFS()

	entries, err := fsys.ReadDir("WINDOWS")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	data, err := fsys.ReadFile("wInDoWs/NotePad.EXE")
	require.NoError(t, err)
	require.Equal(t, "MZnotepad", string(data))

	f, err := fsys.Open("WINDOWS/notepad.exe")
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, "MZnotepad", string(got))
}

func TestCaseSensitiveOnLinux(t *testing.T) {
	mod := time.Date(2023, 11, 14, 12, 0, 0, 0, time.UTC)
	sess := &fakeSession{
		os: types.OSLinux,
		dirs: map[string][]types.DirEntry{
			"/":    {{Name: "etc", Dir: true, ModTime: mod}},
			"/etc": {{Name: "hosts", Size: 12, ModTime: mod}},
		},
	}
	fsys := New(context.Background(), sess, "/")

	_, err := fsys.Stat("etc/hosts")
	require.NoError(t, err)

	_, err = fsys.Stat("ETC/hosts")
	require.Error(t, err)
	_, err = fsys.Stat("etc/HOSTS")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := newTestFS().Open("Windows/missing.exe")
	require.ErrorIs(t, err, fs.ErrNotExist)

	var perr *fs.PathError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "Windows/missing.exe", perr.Path)
}

func TestOpenInvalidPath(t *testing.T) {
	_, err := newTestFS().Open("../escape")
	require.ErrorIs(t, err, fs.ErrInvalid)
}

func TestOpenDirectoryReadDirFile(t *testing.T) {
	fsys := newTestFS()

	f, err := fsys.Open("Windows")
	require.NoError(t, err)
	defer f.Close()

	rdf, ok := f.(fs.ReadDirFile)
	require.True(t, ok)

	// Chunked reads honor the ReadDirFile contract.
	first, err := rdf.ReadDir(1)
	require.NoError(t, err)
	require.Len(t, first, 1)

	rest, err := rdf.ReadDir(10)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	_, err = rdf.ReadDir(1)
	require.ErrorIs(t, err, io.EOF)

	// Reading bytes from a directory fails.
	_, err = f.Read(make([]byte, 1))
	require.Error(t, err)
}

func TestRemotePathMapping(t *testing.T) {
	fsys := newTestFS()
	require.Equal(t, `C:\`, fsys.remotePath("."))
	require.Equal(t, `C:\Windows\System32`, fsys.remotePath("Windows/System32"))

	linux := New(context.Background(), &fakeSession{os: types.OSLinux}, "/")
	require.Equal(t, "/", linux.remotePath("."))
	require.Equal(t, "/etc/hosts", linux.remotePath("etc/hosts"))
}
