package partedfs

import (
	"io"
	"os"
	"path"

	"github.com/spf13/afero"
)

var _ afero.File = (*partedDir)(nil)

// partedDir implements afero.File for directories, serving the merged view of
// delegate subdirectories and decoded logical files.
type partedDir struct {
	pfs     *PartedFS
	path    string
	entries []os.FileInfo
	offset  int
	closed  bool
}

// newPartedDir creates a directory handle; entries are loaded lazily on the
// first Readdir.
func newPartedDir(pfs *PartedFS, path string) *partedDir {
	return &partedDir{
		pfs:  pfs,
		path: path,
	}
}

// Close closes the directory
func (d *partedDir) Close() error {
	d.closed = true
	return nil
}

// Read is not supported for directories
func (d *partedDir) Read(p []byte) (n int, err error) {
	return 0, os.ErrInvalid
}

// ReadAt is not supported for directories
func (d *partedDir) ReadAt(p []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

// Seek seeks to an offset in the directory listing
func (d *partedDir) Seek(offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, os.ErrClosed
	}

	switch whence {
	case io.SeekStart:
		d.offset = int(offset)
	case io.SeekCurrent:
		d.offset += int(offset)
	case io.SeekEnd:
		if d.entries == nil {
			if err := d.loadEntries(); err != nil {
				return 0, err
			}
		}
		d.offset = len(d.entries) + int(offset)
	}

	if d.offset < 0 {
		d.offset = 0
	}

	return int64(d.offset), nil
}

// Write is not supported for directories
func (d *partedDir) Write(p []byte) (n int, err error) {
	return 0, os.ErrInvalid
}

// WriteAt is not supported for directories
func (d *partedDir) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, os.ErrInvalid
}

// Name returns the base name of the directory
func (d *partedDir) Name() string {
	return path.Base(d.path)
}

// Readdir reads directory entries from the merged listing
func (d *partedDir) Readdir(count int) ([]os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}

	if d.entries == nil {
		if err := d.loadEntries(); err != nil {
			return nil, err
		}
	}

	if d.offset >= len(d.entries) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}

	var end int
	if count <= 0 {
		end = len(d.entries)
	} else {
		end = d.offset + count
		if end > len(d.entries) {
			end = len(d.entries)
		}
	}

	result := d.entries[d.offset:end]
	d.offset = end

	if count > 0 && len(result) == 0 {
		return nil, io.EOF
	}

	return result, nil
}

// Readdirnames reads directory entry names
func (d *partedDir) Readdirnames(count int) ([]string, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}

	return names, nil
}

// Stat returns the FileInfo for the directory
func (d *partedDir) Stat() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	return d.pfs.Stat(d.path)
}

// Sync is a no-op for directories
func (d *partedDir) Sync() error {
	return nil
}

// Truncate is not supported for directories
func (d *partedDir) Truncate(size int64) error {
	return os.ErrInvalid
}

// WriteString is not supported for directories
func (d *partedDir) WriteString(s string) (ret int, err error) {
	return 0, os.ErrInvalid
}

// loadEntries loads the merged directory listing
func (d *partedDir) loadEntries() error {
	entries, err := d.pfs.ReadDir(d.path)
	if err != nil {
		return err
	}
	d.entries = entries
	return nil
}
