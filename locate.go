package partedfs

import (
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"
)

// partRef identifies one discovered physical part of a logical file.
type partRef struct {
	index int
	path  string
	info  os.FileInfo
}

// listParts returns every physical part discoverable for the logical path,
// sorted by parsed integer index. Sorting must be numeric: a lexical sort
// would order "part10" before "part2" and corrupt the byte order of every
// downstream read, rename and copy.
//
// A missing parent directory yields an empty set, not an error: a logical
// file with zero discoverable parts simply does not exist.
func (pfs *PartedFS) listParts(logical string) ([]partRef, error) {
	logical = cleanPath(logical)

	if parts, ok := pfs.cache.getParts(logical); ok {
		return parts, nil
	}
	if pfs.cache.isNegative(logical) {
		return nil, nil
	}

	dir := path.Dir(logical)
	base := path.Base(logical)

	entries, err := afero.ReadDir(pfs.base, dir)
	if err != nil {
		if os.IsNotExist(err) {
			pfs.cache.putNegative(logical)
			return nil, nil
		}
		return nil, err
	}

	var parts []partRef
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := parsePartName(entry.Name(), base)
		if !ok {
			continue
		}
		parts = append(parts, partRef{
			index: idx,
			path:  path.Join(dir, entry.Name()),
			info:  entry,
		})
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].index < parts[j].index
	})

	if len(parts) == 0 {
		pfs.cache.putNegative(logical)
	} else {
		pfs.cache.putParts(logical, parts)
	}
	return parts, nil
}

// hasPartZero reports whether the part set contains index 0, the marker that
// the logical path is a regular file rather than a directory or a damaged
// remnant.
func hasPartZero(parts []partRef) bool {
	return len(parts) > 0 && parts[0].index == 0
}

// totalSize sums the sizes of all parts in the set.
func totalSize(parts []partRef) int64 {
	var size int64
	for _, p := range parts {
		size += p.info.Size()
	}
	return size
}
