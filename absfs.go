package partedfs

import (
	"os"
	"time"

	"github.com/absfs/absfs"
)

// partedFiler wraps PartedFS to implement absfs.Filer with correct types
type partedFiler struct {
	pfs *PartedFS
}

// Ensure partedFiler implements absfs.Filer interface at compile time
var _ absfs.Filer = (*partedFiler)(nil)

// FileSystem returns an absfs.FileSystem view of this PartedFS.
// The returned FileSystem maintains its own working directory state and
// provides the full absfs.FileSystem interface including convenience methods
// like Open, Create, MkdirAll, RemoveAll, and Truncate.
//
// This enables seamless integration with the absfs ecosystem.
//
// Example:
//
//	pfs, err := partedfs.New(afero.NewOsFs(), 100*1024*1024)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Use as absfs.FileSystem
//	fs := pfs.FileSystem()
//	fs.Chdir("/backups")
//	file, err := fs.Open("backup.tar") // Uses current working directory
func (pfs *PartedFS) FileSystem() absfs.FileSystem {
	return absfs.ExtendFiler(&partedFiler{pfs: pfs})
}

// OpenFile implements absfs.Filer
func (a *partedFiler) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return a.pfs.OpenFile(cleanPath(name), flag, perm)
}

// Mkdir implements absfs.Filer
func (a *partedFiler) Mkdir(name string, perm os.FileMode) error {
	return a.pfs.Mkdir(cleanPath(name), perm)
}

// Remove implements absfs.Filer
func (a *partedFiler) Remove(name string) error {
	return a.pfs.Remove(cleanPath(name))
}

// Rename implements absfs.Filer
func (a *partedFiler) Rename(oldpath, newpath string) error {
	return a.pfs.Rename(cleanPath(oldpath), cleanPath(newpath))
}

// Stat implements absfs.Filer
func (a *partedFiler) Stat(name string) (os.FileInfo, error) {
	return a.pfs.Stat(cleanPath(name))
}

// Chmod implements absfs.Filer
func (a *partedFiler) Chmod(name string, mode os.FileMode) error {
	return a.pfs.Chmod(cleanPath(name), mode)
}

// Chtimes implements absfs.Filer
func (a *partedFiler) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return a.pfs.Chtimes(cleanPath(name), atime, mtime)
}

// Chown implements absfs.Filer
func (a *partedFiler) Chown(name string, uid, gid int) error {
	return a.pfs.Chown(cleanPath(name), uid, gid)
}

// Separator returns the path separator (always forward slash for virtual paths)
func (a *partedFiler) Separator() uint8 {
	return '/'
}

// ListSeparator returns the path list separator (always colon for virtual paths)
func (a *partedFiler) ListSeparator() uint8 {
	return ':'
}

// Truncate changes the size of the named file. Only truncation to zero is
// supported: a part set cannot be cut to an arbitrary length in place, so a
// zero-size truncate is expressed as an empty write session and any other
// size is rejected.
func (a *partedFiler) Truncate(name string, size int64) error {
	name = cleanPath(name)

	if size != 0 {
		return &os.PathError{Op: "truncate", Path: name, Err: ErrNotSupported}
	}

	if isDir, err := a.pfs.IsDir(name); err == nil && isDir {
		return &os.PathError{Op: "truncate", Path: name, Err: ErrIsDirectory}
	}

	exists, err := a.pfs.IsFile(name)
	if err != nil {
		return err
	}
	if !exists {
		return notFound("truncate", name)
	}

	f, err := a.pfs.OpenFile(name, os.O_WRONLY|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	return f.Close()
}
