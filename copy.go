package partedfs

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Copy copies a logical file from src to dst, one part at a time, applying
// the same contiguous re-indexing as Rename: the Nth part of src in sorted
// order becomes part N at dst regardless of its original index.
//
// When the delegate implements the Copier upgrade interface its native copy
// primitive is used for each part; otherwise the bytes are streamed through a
// buffered copy. Like Rename, the per-part sequence is not atomic: a failure
// mid-sequence leaves dst with only the parts copied so far.
func (pfs *PartedFS) Copy(src, dst string) error {
	src = cleanPath(src)
	dst = cleanPath(dst)

	if isDir, err := afero.DirExists(pfs.base, src); err == nil && isDir {
		return &os.PathError{Op: "copy", Path: src, Err: ErrIsDirectory}
	}

	parts, err := pfs.listParts(src)
	if err != nil {
		return err
	}
	if !hasPartZero(parts) {
		return notFound("copy", src)
	}

	defer pfs.InvalidateCache(dst)

	copier, native := pfs.base.(Copier)
	for i, part := range parts {
		partDst := encodePart(dst, i)
		pfs.log.WithFields(logrus.Fields{
			"src":    part.path,
			"dst":    partDst,
			"native": native,
		}).Debug("partedfs: copying part")

		if native {
			err = copier.Copy(part.path, partDst)
		} else {
			err = pfs.copyPartBytes(part.path, partDst, part.info)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// copyPartBytes copies one part through a buffer on the delegate
func (pfs *PartedFS) copyPartBytes(src, dst string, info os.FileInfo) error {
	srcFile, err := pfs.base.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source part: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := pfs.base.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination part: %w", err)
	}
	defer dstFile.Close()

	buf := make([]byte, pfs.copyBufferSize)
	if _, err := io.CopyBuffer(dstFile, srcFile, buf); err != nil {
		return fmt.Errorf("failed to copy part contents: %w", err)
	}

	// Best effort; backends without timestamp support are fine.
	if err := pfs.base.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		_ = err
	}

	return nil
}
