package partedfs

import (
	"os"
	"path"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var _ afero.Fs = (*PartedFS)(nil)

// notFound wraps os.ErrNotExist so os.IsNotExist and errors.Is both work.
func notFound(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: os.ErrNotExist}
}

// FileInfo is the synthesized metadata of a logical file: size is the sum of
// all part sizes and the modification time is the most recent across parts.
// The overlay cannot tell the true creation time of a logical file, so "time
// of the most recent touch to any part" is the best approximation available.
type FileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
	parts   []os.FileInfo
}

func (fi *FileInfo) Name() string       { return fi.name }
func (fi *FileInfo) Size() int64        { return fi.size }
func (fi *FileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *FileInfo) ModTime() time.Time { return fi.modTime }
func (fi *FileInfo) IsDir() bool        { return false }
func (fi *FileInfo) Sys() interface{}   { return nil }

// Parts returns the raw per-part info records, in ascending index order, for
// diagnostic use.
func (fi *FileInfo) Parts() []os.FileInfo { return fi.parts }

// aggregateInfo synthesizes logical file info from a discovered part set.
// The scan runs in ascending index order and only a strictly later timestamp
// replaces the current maximum, so ties break toward the lowest part index.
func aggregateInfo(name string, parts []partRef) *FileInfo {
	info := &FileInfo{
		name:  name,
		mode:  parts[0].info.Mode(),
		parts: make([]os.FileInfo, 0, len(parts)),
	}
	for _, part := range parts {
		info.size += part.info.Size()
		if part.info.ModTime().After(info.modTime) {
			info.modTime = part.info.ModTime()
		}
		info.parts = append(info.parts, part.info)
	}
	return info
}

// Open opens the named logical file for reading. Opening a directory returns
// a handle serving the merged directory listing.
func (pfs *PartedFS) Open(name string) (afero.File, error) {
	return pfs.OpenFile(name, os.O_RDONLY, 0)
}

// Create creates or truncates the named logical file
func (pfs *PartedFS) Create(name string) (afero.File, error) {
	return pfs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// OpenFile opens a logical file with the specified flags.
//
// Read opens return a handle concatenating every part in index order; the
// file must exist (discoverable part0) or a not-found error is returned.
// Append opens resume the last existing part. Any other write-flagged open is
// a truncate: all existing parts are removed first and a fresh session starts
// at part0 — the overlay never partially overwrites a part set in place.
func (pfs *PartedFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	name = cleanPath(name)
	isWrite := flag&(os.O_WRONLY|os.O_RDWR) != 0
	isAppend := flag&os.O_APPEND != 0

	isDir, err := afero.DirExists(pfs.base, name)
	if err != nil {
		return nil, err
	}
	if isDir {
		if isWrite || isAppend {
			return nil, &os.PathError{Op: "open", Path: name, Err: ErrIsDirectory}
		}
		return newPartedDir(pfs, name), nil
	}

	parts, err := pfs.listParts(name)
	if err != nil {
		return nil, err
	}
	exists := hasPartZero(parts)

	if isAppend {
		if exists {
			pfs.InvalidateCache(name)
			return newAppendFile(pfs, name, parts, perm)
		}
		if flag&os.O_CREATE == 0 {
			return nil, notFound("open", name)
		}
		// Fall through to a fresh write, clearing any stray parts first.
		isWrite = true
	}

	if isWrite {
		if !exists && flag&os.O_CREATE == 0 {
			return nil, notFound("open", name)
		}
		if len(parts) > 0 {
			if err := pfs.removeParts(name, parts); err != nil {
				return nil, err
			}
		}
		pfs.InvalidateCache(name)
		return newWriteFile(pfs, name, perm)
	}

	if !exists {
		return nil, notFound("open", name)
	}
	return newReadFile(pfs, name, parts)
}

// removeParts deletes every given part from the delegate. A failure part way
// through leaves the remaining parts in place; there is no rollback.
func (pfs *PartedFS) removeParts(name string, parts []partRef) error {
	defer pfs.InvalidateCache(name)
	for _, part := range parts {
		pfs.log.WithFields(logrus.Fields{
			"path": name,
			"part": part.path,
		}).Debug("partedfs: removing part")
		if err := pfs.base.Remove(part.path); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes every physical part discovered for the logical path.
// Removing a path with zero parts is a no-op, not an error; removing a path
// that is an (empty) delegate directory passes through to the delegate.
func (pfs *PartedFS) Remove(name string) error {
	name = cleanPath(name)

	parts, err := pfs.listParts(name)
	if err != nil {
		return err
	}
	if len(parts) > 0 {
		return pfs.removeParts(name, parts)
	}

	if isDir, err := afero.DirExists(pfs.base, name); err == nil && isDir {
		return pfs.base.Remove(name)
	}
	return nil
}

// RemoveAll removes a logical file or a whole directory tree. Directories
// pass through to the delegate, which also deletes any parts stored below.
func (pfs *PartedFS) RemoveAll(name string) error {
	name = cleanPath(name)

	if isDir, err := afero.DirExists(pfs.base, name); err == nil && isDir {
		defer pfs.InvalidateCacheTree(name)
		return pfs.base.RemoveAll(name)
	}
	return pfs.Remove(name)
}

// Rename moves a logical file, renaming each part in ascending index order
// and re-indexing contiguously: a source stored at indices {0,2,5} lands at
// {0,1,2} with the same bytes in the same order. Directories pass through.
//
// The per-part renames are sequential; a failure mid-sequence leaves some
// parts renamed and some not, with no rollback.
func (pfs *PartedFS) Rename(oldname, newname string) error {
	oldname = cleanPath(oldname)
	newname = cleanPath(newname)

	if isDir, err := afero.DirExists(pfs.base, oldname); err == nil && isDir {
		defer pfs.InvalidateCacheTree(oldname)
		defer pfs.InvalidateCacheTree(newname)
		return pfs.base.Rename(oldname, newname)
	}

	parts, err := pfs.listParts(oldname)
	if err != nil {
		return err
	}
	if !hasPartZero(parts) {
		return notFound("rename", oldname)
	}

	defer pfs.InvalidateCache(oldname)
	defer pfs.InvalidateCache(newname)

	for i, part := range parts {
		dst := encodePart(newname, i)
		pfs.log.WithFields(logrus.Fields{
			"src": part.path,
			"dst": dst,
		}).Debug("partedfs: renaming part")
		if err := pfs.base.Rename(part.path, dst); err != nil {
			return err
		}
	}
	return nil
}

// Stat returns the synthesized info of a logical file: size is the sum of the
// part sizes, the modification time the most recent across parts. Directories
// pass through to the delegate. The result for files is a *FileInfo whose
// Parts method exposes the raw per-part records.
func (pfs *PartedFS) Stat(name string) (os.FileInfo, error) {
	name = cleanPath(name)

	if isDir, err := afero.DirExists(pfs.base, name); err == nil && isDir {
		return pfs.base.Stat(name)
	}

	parts, err := pfs.listParts(name)
	if err != nil {
		return nil, err
	}
	if !hasPartZero(parts) {
		return nil, notFound("stat", name)
	}
	return aggregateInfo(path.Base(name), parts), nil
}

// PartInfos returns the raw delegate info record of every part of the logical
// file, in ascending index order.
func (pfs *PartedFS) PartInfos(name string) ([]os.FileInfo, error) {
	name = cleanPath(name)

	parts, err := pfs.listParts(name)
	if err != nil {
		return nil, err
	}
	if !hasPartZero(parts) {
		return nil, notFound("stat", name)
	}

	infos := make([]os.FileInfo, 0, len(parts))
	for _, part := range parts {
		infos = append(infos, part.info)
	}
	return infos, nil
}

// Size returns the total size of a logical file as the sum of its part sizes
func (pfs *PartedFS) Size(name string) (int64, error) {
	info, err := pfs.Stat(cleanPath(name))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Exists reports whether the path exists as a directory on the delegate or as
// a logical file (encoded part0 present). Both can be true at once: a
// directory and a same-named parted file may coexist, which is permitted.
func (pfs *PartedFS) Exists(name string) (bool, error) {
	name = cleanPath(name)

	if isDir, err := afero.DirExists(pfs.base, name); err != nil {
		return false, err
	} else if isDir {
		return true, nil
	}
	return pfs.IsFile(name)
}

// IsFile reports whether part0 of the encoded path exists on the delegate.
// A part set missing part0 is not a file.
func (pfs *PartedFS) IsFile(name string) (bool, error) {
	info, err := pfs.base.Stat(encodePart(cleanPath(name), 0))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// IsDir reports whether the path is a directory on the delegate
func (pfs *PartedFS) IsDir(name string) (bool, error) {
	return afero.DirExists(pfs.base, cleanPath(name))
}

// ReadDir lists a directory, merging the delegate's subdirectories verbatim
// with the decoded logical name of every part0 entry. Part suffixes are never
// visible and every logical file appears exactly once, with synthesized info.
// Subdirectories come first, then logical files, each group sorted by name.
// Plain delegate files that carry no part suffix are not part of the overlay
// and are omitted.
func (pfs *PartedFS) ReadDir(name string) ([]os.FileInfo, error) {
	name = cleanPath(name)

	entries, err := afero.ReadDir(pfs.base, name)
	if err != nil {
		return nil, err
	}

	var dirs []os.FileInfo
	groups := make(map[string][]partRef)
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry)
			continue
		}
		base := decodePart(entry.Name())
		if base == entry.Name() {
			// Not a part file; plain delegate files are not overlay files.
			continue
		}
		idx, _ := parsePartName(entry.Name(), base)
		groups[base] = append(groups[base], partRef{
			index: idx,
			path:  path.Join(name, entry.Name()),
			info:  entry,
		})
	}

	var files []os.FileInfo
	for base, parts := range groups {
		sort.Slice(parts, func(i, j int) bool {
			return parts[i].index < parts[j].index
		})
		if !hasPartZero(parts) {
			continue
		}
		files = append(files, aggregateInfo(base, parts))
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })

	return append(dirs, files...), nil
}

// ListDirs returns the names of the subdirectories of a directory
func (pfs *PartedFS) ListDirs(name string) ([]string, error) {
	return pfs.listNames(name, true, false)
}

// ListFiles returns the logical names of the overlay files in a directory
func (pfs *PartedFS) ListFiles(name string) ([]string, error) {
	return pfs.listNames(name, false, true)
}

func (pfs *PartedFS) listNames(name string, dirsOnly, filesOnly bool) ([]string, error) {
	entries, err := pfs.ReadDir(name)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if dirsOnly && !entry.IsDir() {
			continue
		}
		if filesOnly && entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Mkdir creates a directory on the delegate
func (pfs *PartedFS) Mkdir(name string, perm os.FileMode) error {
	return pfs.base.Mkdir(cleanPath(name), perm)
}

// MkdirAll creates a directory and all missing parents on the delegate
func (pfs *PartedFS) MkdirAll(name string, perm os.FileMode) error {
	return pfs.base.MkdirAll(cleanPath(name), perm)
}

// Chmod changes the mode of every part of a logical file. Directories pass
// through to the delegate.
func (pfs *PartedFS) Chmod(name string, mode os.FileMode) error {
	return pfs.eachPart("chmod", name, func(partPath string) error {
		return pfs.base.Chmod(partPath, mode)
	})
}

// Chown changes the ownership of every part of a logical file. Directories
// pass through to the delegate.
func (pfs *PartedFS) Chown(name string, uid, gid int) error {
	return pfs.eachPart("chown", name, func(partPath string) error {
		return pfs.base.Chown(partPath, uid, gid)
	})
}

// Chtimes changes the timestamps of every part of a logical file. Directories
// pass through to the delegate.
func (pfs *PartedFS) Chtimes(name string, atime, mtime time.Time) error {
	return pfs.eachPart("chtimes", name, func(partPath string) error {
		return pfs.base.Chtimes(partPath, atime, mtime)
	})
}

// eachPart applies op to every part of a logical file, or passes the raw path
// through when it is a delegate directory.
func (pfs *PartedFS) eachPart(opName, name string, op func(partPath string) error) error {
	name = cleanPath(name)

	if isDir, err := afero.DirExists(pfs.base, name); err == nil && isDir {
		return op(name)
	}

	parts, err := pfs.listParts(name)
	if err != nil {
		return err
	}
	if !hasPartZero(parts) {
		return notFound(opName, name)
	}

	defer pfs.InvalidateCache(name)
	for _, part := range parts {
		if err := op(part.path); err != nil {
			return err
		}
	}
	return nil
}
