package partedfs

import (
	"strconv"
	"strings"
)

// encodePart appends the part suffix for the given index to a logical path:
// encodePart("/a/b.tar", 2) == "/a/b.tar.part2".
func encodePart(path string, index int) string {
	return path + PartSuffix + strconv.Itoa(index)
}

// decodePart strips the trailing part suffix from a physical path. It is the
// exact inverse of encodePart for any non-negative index. Paths without a
// valid part suffix are returned unchanged.
func decodePart(path string) string {
	i := strings.LastIndex(path, PartSuffix)
	if i < 0 {
		return path
	}
	if _, ok := parseIndex(path[i+len(PartSuffix):]); !ok {
		return path
	}
	return path[:i]
}

// parsePartName checks whether name is a part of the logical file with the
// given basename and returns the decoded index. The on-disk convention is
// strict: the index is a decimal integer with no leading zeros, so entries
// like "b.tar.part01" or "b.tar.partX" are not parts of "b.tar".
func parsePartName(name, base string) (int, bool) {
	prefix := base + PartSuffix
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	return parseIndex(name[len(prefix):])
}

// isPartName reports whether name carries a valid part suffix, regardless of
// which logical file it belongs to.
func isPartName(name string) bool {
	i := strings.LastIndex(name, PartSuffix)
	if i < 0 {
		return false
	}
	_, ok := parseIndex(name[i+len(PartSuffix):])
	return ok
}

// parseIndex parses a canonical part index: decimal digits, no leading zeros.
func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
