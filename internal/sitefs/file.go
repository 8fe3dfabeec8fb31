package sitefs

import (
	"io"
	"io/fs"
	"time"
)

// siteFile implements fs.File for item content
type siteFile struct {
	entry  *entry
	data   []byte
	offset int64
}

// siteDir implements fs.ReadDirFile for folders
type siteDir struct {
	entry   *entry
	entries []fs.DirEntry
}

func (f *siteFile) Stat() (fs.FileInfo, error) {
	return fileInfo{f.entry}, nil
}

// Read reads up to len(b) bytes from the file
func (f *siteFile) Read(b []byte) (int, error) {
	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(b, f.data[f.offset:])
	f.offset += int64(n)
	return n, nil
}

func (f *siteFile) Close() error {
	return nil
}

func (d *siteDir) Stat() (fs.FileInfo, error) {
	return fileInfo{d.entry}, nil
}

func (d *siteDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.entry.name, Err: fs.ErrInvalid}
}

// ReadDir returns up to n entries in tree order. With n <= 0 it returns
// everything left and a nil error.
func (d *siteDir) ReadDir(n int) ([]fs.DirEntry, error) {
	if n <= 0 {
		result := d.entries
		d.entries = nil
		if result == nil {
			result = []fs.DirEntry{}
		}
		return result, nil
	}

	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	count := min(n, len(d.entries))
	result := d.entries[:count:count]
	d.entries = d.entries[count:]
	return result, nil
}

func (d *siteDir) Close() error {
	return nil
}

// dirEntry implements fs.DirEntry
type dirEntry struct {
	e *entry
}

func (de dirEntry) Name() string               { return de.e.name }
func (de dirEntry) IsDir() bool                { return de.e.dir }
func (de dirEntry) Type() fs.FileMode          { return fileInfo{de.e}.Mode().Type() }
func (de dirEntry) Info() (fs.FileInfo, error) { return fileInfo{de.e}, nil }

// fileInfo implements fs.FileInfo. Sys returns the *types.Item, or nil for
// the root.
type fileInfo struct {
	e *entry
}

func (fi fileInfo) Name() string {
	return fi.e.name
}

// Size is the artifact or descriptor length; 0 for directories
func (fi fileInfo) Size() int64 {
	if fi.e.dir {
		return 0
	}
	return fi.e.size
}

func (fi fileInfo) Mode() fs.FileMode {
	if fi.e.dir {
		return fs.ModeDir | 0555
	}
	return 0444
}

func (fi fileInfo) ModTime() time.Time {
	return fi.e.modTime
}

func (fi fileInfo) IsDir() bool {
	return fi.e.dir
}

func (fi fileInfo) Sys() any {
	if fi.e.item == nil {
		return nil
	}
	return fi.e.item
}
