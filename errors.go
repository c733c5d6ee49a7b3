package fatinspect

import (
	"errors"
	"fmt"
	"io/fs"
)

// These errors describe why an operation on a volume failed.
// Use errors.Is to check for them, they are usually decorated by a checkpoint.
var (
	// ErrInvalidSignature is returned by Open if the first two FAT entries do not
	// carry the expected signature. The volume cannot be used at all.
	ErrInvalidSignature = errors.New("invalid FAT signature")

	// ErrInvalidBootSector is returned by Open if the boot sector describes an
	// impossible geometry (zero sector or cluster size).
	ErrInvalidBootSector = errors.New("invalid boot sector")

	// ErrNotFound is returned if a path component does not exist.
	// It also matches fs.ErrNotExist.
	ErrNotFound = fmt.Errorf("path not found: %w", fs.ErrNotExist)

	// ErrIO is returned if the underlying storage could not deliver the requested bytes.
	ErrIO = errors.New("could not read from storage")

	// ErrMalformedEncoding is returned for on-disk structures which cannot be
	// interpreted, e.g. an unterminated long name or a cyclic cluster chain.
	ErrMalformedEncoding = errors.New("malformed on-disk structure")

	// ErrUnsupportedName is returned by LongName for names outside of ASCII.
	// Directory scans fall back to the short name of such entries.
	ErrUnsupportedName = errors.New("unsupported long name")

	ErrIsDirectory  = errors.New("is a directory")
	ErrNotDirectory = errors.New("not a directory")
)

// These errors may occur while processing a file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)
