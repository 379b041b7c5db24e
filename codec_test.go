package partedfs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	paths := []string{"/backup.tar", "/a/b/c.bin", "/no-ext", "/x.part3", "/weird.part"}
	indices := []int{0, 1, 2, 9, 10, 11, 99, 100, 12345}

	for _, p := range paths {
		for _, idx := range indices {
			encoded := encodePart(p, idx)
			require.Equal(t, fmt.Sprintf("%s.part%d", p, idx), encoded)
			require.Equal(t, p, decodePart(encoded), "decode must invert encode for %q/%d", p, idx)
		}
	}
}

func TestDecodeLeavesNonPartsAlone(t *testing.T) {
	for _, p := range []string{
		"/plain.txt",
		"/backup.tar",
		"/f.part",      // no index digits
		"/f.part01",    // leading zero
		"/f.partx",     // not a number
		"/f.part-1",    // negative
		"/f.part 2",    // embedded space
		"/partial.bin", // "part" not introduced by the delimiter
	} {
		require.Equal(t, p, decodePart(p), "non-part path %q must decode to itself", p)
	}
}

func TestDecodeStripsOnlyLastSuffix(t *testing.T) {
	// A logical name may itself end in a valid part suffix; decoding strips
	// exactly one layer.
	require.Equal(t, "/f.part3", decodePart("/f.part3.part0"))
}

func TestParsePartName(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		index int
		ok    bool
	}{
		{"backup.tar.part0", "backup.tar", 0, true},
		{"backup.tar.part10", "backup.tar", 10, true},
		{"backup.tar.part2", "backup.tar", 2, true},
		{"backup.tar.part0", "other.tar", 0, false},
		{"backup.tar.part", "backup.tar", 0, false},
		{"backup.tar.part01", "backup.tar", 0, false},
		{"backup.tar.part1x", "backup.tar", 0, false},
		{"backup.tar", "backup.tar", 0, false},
		{"backup.tar.partition0", "backup.tar", 0, false},
		{"x.part0", "backup.tar", 0, false},
	}

	for _, tc := range tests {
		idx, ok := parsePartName(tc.name, tc.base)
		require.Equal(t, tc.ok, ok, "parsePartName(%q, %q)", tc.name, tc.base)
		if tc.ok {
			require.Equal(t, tc.index, idx, "parsePartName(%q, %q)", tc.name, tc.base)
		}
	}
}

func TestIsPartName(t *testing.T) {
	require.True(t, isPartName("backup.tar.part0"))
	require.True(t, isPartName("backup.tar.part12"))
	require.False(t, isPartName("backup.tar"))
	require.False(t, isPartName("backup.tar.part"))
	require.False(t, isPartName("backup.tar.part07"))
}

func TestParseIndexRejectsNonCanonicalForms(t *testing.T) {
	valid := map[string]int{"0": 0, "1": 1, "10": 10, "907": 907}
	for s, want := range valid {
		got, ok := parseIndex(s)
		require.True(t, ok, "parseIndex(%q)", s)
		require.Equal(t, want, got)
	}

	for _, s := range []string{"", "01", "007", "-1", "+1", "1.5", "x", "1x", " 1"} {
		_, ok := parseIndex(s)
		require.False(t, ok, "parseIndex(%q) must reject", s)
	}
}
