package partedfs

import (
	"io"
	"os"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// partFile presents one logical byte stream over N physical parts and
// implements afero.File. A handle is either a read session over every
// discovered part or a write session over a single growing part that rolls
// over to the next index when it reaches the configured maximum size.
type partFile struct {
	pfs     *PartedFS
	logical string

	// read session state
	reading bool
	parts   []partRef
	handles []afero.File
	offset  int64
	size    int64

	// write session state
	writing  bool
	perm     os.FileMode
	w        afero.File
	wIndex   int
	wWritten int64

	closed bool
}

// newReadFile opens every part of the logical file in ascending index order.
// On any open failure the handles opened so far are closed before returning.
func newReadFile(pfs *PartedFS, logical string, parts []partRef) (*partFile, error) {
	handles := make([]afero.File, 0, len(parts))
	for _, part := range parts {
		h, err := pfs.base.Open(part.path)
		if err != nil {
			for _, open := range handles {
				open.Close()
			}
			return nil, err
		}
		handles = append(handles, h)
	}

	return &partFile{
		pfs:     pfs,
		logical: logical,
		reading: true,
		parts:   parts,
		handles: handles,
		size:    totalSize(parts),
	}, nil
}

// newWriteFile starts a fresh write session at part0. The caller has already
// removed any existing parts.
func newWriteFile(pfs *PartedFS, logical string, perm os.FileMode) (*partFile, error) {
	h, err := pfs.base.OpenFile(encodePart(logical, 0), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}

	return &partFile{
		pfs:     pfs,
		logical: logical,
		writing: true,
		perm:    perm,
		w:       h,
		wIndex:  0,
	}, nil
}

// newAppendFile resumes a write session on the last existing part. When that
// part is already at or over capacity the next write rolls over to a new part
// at the next index.
func newAppendFile(pfs *PartedFS, logical string, parts []partRef, perm os.FileMode) (*partFile, error) {
	last := parts[len(parts)-1]
	h, err := pfs.base.OpenFile(last.path, os.O_WRONLY|os.O_APPEND, perm)
	if err != nil {
		return nil, err
	}

	return &partFile{
		pfs:      pfs,
		logical:  logical,
		writing:  true,
		perm:     perm,
		w:        h,
		wIndex:   last.index,
		wWritten: last.info.Size(),
	}, nil
}

// Name returns the logical path of the file
func (f *partFile) Name() string {
	return f.logical
}

// Read reads sequentially across parts, draining part 0, then part 1, and so
// on; io.EOF is reached only after the last part is exhausted.
func (f *partFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

// ReadAt reads len(p) bytes starting at the logical offset off, mapping the
// range onto the parts that hold it. It does not move the read cursor.
func (f *partFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, &os.PathError{Op: "read", Path: f.logical, Err: os.ErrClosed}
	}
	if !f.reading {
		return 0, &os.PathError{Op: "read", Path: f.logical, Err: os.ErrInvalid}
	}
	if off < 0 {
		return 0, &os.PathError{Op: "read", Path: f.logical, Err: os.ErrInvalid}
	}

	total := 0
	for total < len(p) {
		if off >= f.size {
			return total, io.EOF
		}

		// Locate the part holding the current offset.
		local := off
		idx := 0
		for idx < len(f.parts) && local >= f.parts[idx].info.Size() {
			local -= f.parts[idx].info.Size()
			idx++
		}
		if idx >= len(f.parts) {
			return total, io.EOF
		}

		want := int64(len(p) - total)
		if remain := f.parts[idx].info.Size() - local; want > remain {
			want = remain
		}

		n, err := f.handles[idx].ReadAt(p[total:total+int(want)], local)
		total += n
		off += int64(n)
		if err != nil && err != io.EOF {
			return total, err
		}
		if n == 0 {
			// Part reported a smaller size than discovery did; surface what
			// was read rather than spinning.
			return total, io.EOF
		}
	}
	return total, nil
}

// Seek sets the logical read offset
func (f *partFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, &os.PathError{Op: "seek", Path: f.logical, Err: os.ErrClosed}
	}
	if !f.reading {
		return 0, &os.PathError{Op: "seek", Path: f.logical, Err: os.ErrInvalid}
	}

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.offset + offset
	case io.SeekEnd:
		next = f.size + offset
	default:
		return 0, &os.PathError{Op: "seek", Path: f.logical, Err: os.ErrInvalid}
	}

	if next < 0 {
		return 0, &os.PathError{Op: "seek", Path: f.logical, Err: os.ErrInvalid}
	}

	f.offset = next
	return next, nil
}

// Write places p across parts, filling the current part to exactly the
// maximum part size and rolling over to the next index until every byte is
// placed. A write that exactly fills a part does not open an empty successor;
// the next part is created lazily by the write that needs it.
func (f *partFile) Write(p []byte) (int, error) {
	if f.closed {
		return 0, &os.PathError{Op: "write", Path: f.logical, Err: os.ErrClosed}
	}
	if !f.writing {
		return 0, &os.PathError{Op: "write", Path: f.logical, Err: os.ErrInvalid}
	}

	total := 0
	for len(p) > 0 {
		room := f.pfs.maxPartSize - f.wWritten
		if room <= 0 {
			if err := f.rollover(); err != nil {
				return total, err
			}
			continue
		}

		chunk := int64(len(p))
		if chunk > room {
			chunk = room
		}

		n, err := f.w.Write(p[:chunk])
		f.wWritten += int64(n)
		total += n
		if err != nil {
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}

// rollover closes the full current part and opens a fresh part at the next
// index.
func (f *partFile) rollover() error {
	if err := f.w.Close(); err != nil {
		return err
	}

	f.wIndex++
	f.pfs.log.WithFields(logrus.Fields{
		"path": f.logical,
		"part": f.wIndex,
	}).Debug("partedfs: part full, rolling over to next part")

	h, err := f.pfs.base.OpenFile(encodePart(f.logical, f.wIndex), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.perm)
	if err != nil {
		return err
	}
	f.w = h
	f.wWritten = 0
	return nil
}

// WriteString writes a string to the file
func (f *partFile) WriteString(s string) (int, error) {
	return f.Write([]byte(s))
}

// WriteAt is not supported; parts cannot be overwritten in place without
// violating the size boundary mid-file.
func (f *partFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, &os.PathError{Op: "writeat", Path: f.logical, Err: ErrNotSupported}
}

// Truncate is not supported on an open handle; open the path in write mode to
// truncate a logical file.
func (f *partFile) Truncate(size int64) error {
	return &os.PathError{Op: "truncate", Path: f.logical, Err: ErrNotSupported}
}

// Readdir is not supported for files
func (f *partFile) Readdir(count int) ([]os.FileInfo, error) {
	return nil, &os.PathError{Op: "readdir", Path: f.logical, Err: os.ErrInvalid}
}

// Readdirnames is not supported for files
func (f *partFile) Readdirnames(n int) ([]string, error) {
	return nil, &os.PathError{Op: "readdirnames", Path: f.logical, Err: os.ErrInvalid}
}

// Stat returns the synthesized logical file info
func (f *partFile) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, &os.PathError{Op: "stat", Path: f.logical, Err: os.ErrClosed}
	}
	if f.reading {
		return aggregateInfo(path.Base(f.logical), f.parts), nil
	}
	return f.pfs.Stat(f.logical)
}

// Sync flushes the current part handle
func (f *partFile) Sync() error {
	if f.closed {
		return &os.PathError{Op: "sync", Path: f.logical, Err: os.ErrClosed}
	}
	if f.writing {
		return f.w.Sync()
	}
	return nil
}

// Close closes every part handle owned by the session. For write sessions the
// cached part set is invalidated so the next discovery sees the new layout.
func (f *partFile) Close() error {
	if f.closed {
		return &os.PathError{Op: "close", Path: f.logical, Err: os.ErrClosed}
	}
	f.closed = true

	if f.writing {
		err := f.w.Close()
		f.pfs.InvalidateCache(f.logical)
		return err
	}

	var firstErr error
	for _, h := range f.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
