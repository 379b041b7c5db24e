/*
Package partedfs provides an overlay filesystem for Go that transparently splits
large logical files into a sequence of bounded-size part files on an underlying
filesystem, and reassembles them on read.

# Overview

PartedFS takes a large file and stores it as parts with a maximum size. A file
like 'backup.tar' in the folder '/backups' with 240 MB and a 100 MB part size
translates into the following layout on the underlying filesystem:

	`-- backups
	    |-- backup.tar.part0 (100MB)
	    |-- backup.tar.part1 (100MB)
	    `-- backup.tar.part2 (40MB)

If the maximum part size had been 300 MB there would only be a single file,
but for simplicity's sake it is still managed as a part, so the file can be
extended later:

	`-- backups
	    `-- backup.tar.part0 (240MB)

This is useful on backends that cap the size of a single object (chunked cloud
stores, FAT-style filesystems, mail-sized attachments) while callers keep
working with one logical file.

# Key Features

  - Transparent splitting on write and reassembly on read
  - Single-file semantics (exists, stat, size, rename, copy, remove) synthesized
    over the part set
  - No persisted manifest: the part set is rediscovered from the underlying
    directory listing on every operation
  - Directory operations pass straight through to the underlying filesystem
  - Optional TTL caching of discovered part sets
  - Full afero.Fs interface compatibility plus an absfs ecosystem adapter

# Architecture

Every operation first resolves the logical path's part set by listing the
parent directory on the delegate filesystem and matching entries against the
`<basename>.part<N>` naming convention, sorting them by the parsed integer
index. Reads drain the parts in index order as one stream; writes fill the
current part to exactly the maximum size and roll over into a new part at the
next index. Metadata is synthesized per call: size is the sum of the part
sizes, timestamps take the most recent value across parts.

# Basic Usage

	package main

	import (
	    "log"

	    "github.com/absfs/partedfs"
	    "github.com/spf13/afero"
	)

	func main() {
	    // Any afero.Fs works as the underlying store
	    backend := afero.NewOsFs()

	    // Split files into parts of at most 100 MB
	    pfs, err := partedfs.New(backend, 100*1024*1024)
	    if err != nil {
	        log.Fatal(err)
	    }

	    // Writes roll over into new parts transparently
	    err = afero.WriteFile(pfs, "/backups/backup.tar", payload, 0644)

	    // Reads concatenate the parts back into one stream
	    data, err := afero.ReadFile(pfs, "/backups/backup.tar")

	    // Metadata is synthesized across the part set
	    info, err := pfs.Stat("/backups/backup.tar") // size = sum of parts
	}

# Naming Convention

Parts are stored directly beside where the logical file would live, named
`<logical-basename>.part<N>` where N is a non-negative decimal integer with no
leading zeros. The layout is the only persisted state and is bit-exact for
interoperability with existing stored data; no index or manifest file is ever
written. A logical file exists exactly when its part0 is discoverable; part0
is the marker that distinguishes a file from a directory or a damaged remnant.

# Open Modes

Read opens require the file to exist and return a handle that concatenates all
parts in index order, with full Seek and ReadAt support. Append opens resume
the last existing part and continue the boundary logic from there. Any other
write-flagged open truncates: all existing parts are removed first and a fresh
session starts at part0 — the overlay never partially overwrites a part set in
place, so random-access writes (WriteAt) are not supported.

# Part-Set Caching

Discovery runs a directory listing per operation. For hot paths, an optional
cache remembers discovered part sets by logical path:

	pfs, err := partedfs.New(backend, maxSize,
	    partedfs.WithPartCache(true, 5*time.Minute),
	)

The cache is invalidated on every mutating operation and entries expire after
the TTL; discovery by listing remains the ground truth.

# Thread Safety

PartedFS itself holds no locks beyond the part-set cache's own mutex. Every
overlay operation is a sequence of blocking calls to the delegate filesystem,
and multi-part operations (rename, copy, remove, open-for-read) are not atomic
across parts: a concurrent mutation of the part set between discovery and the
per-part operations can produce partial results with no rollback. If multiple
writers touch the same logical path, the overlay adds no consistency guarantee
beyond whatever the delegate offers per physical path.

# Compatibility

PartedFS implements the afero.Fs interface and can be used as a drop-in
wherever afero filesystems are accepted, including stacking under other afero
wrappers. FileSystem() additionally adapts it to absfs.FileSystem for the
absfs ecosystem.

# Limitations

  - There is no integrity check that a part sequence is contiguous or
    complete: a part that went missing in the middle silently truncates the
    logical stream rather than raising an error. PartInfos exposes the raw
    part records for callers that want to verify contiguity themselves.
  - Remove of a nonexistent logical file is a silent no-op, unlike read opens
    which report not-found.
  - A failure mid-sequence during rename, copy or remove leaves the part set
    in a mixed state with no automatic rollback.
  - Random-access writes and truncation to a nonzero size are not supported.
*/
package partedfs
