package fatinspect

import (
	"errors"
	"fmt"

	"github.com/aligator/fatinspect/checkpoint"
	"github.com/sirupsen/logrus"
)

// Entry is a live file or directory entry together with its names.
type Entry struct {
	Header ShortEntry

	// LongName is the reconstructed long name or "" if the entry has none.
	LongName string

	isRoot bool
}

// Name returns the long name if there is one and the short name otherwise.
func (e Entry) Name() string {
	if e.isRoot {
		return "/"
	}
	if e.LongName != "" {
		return e.LongName
	}
	return ShortName(e.Header)
}

// ShortName returns the 8.3 name of the entry.
func (e Entry) ShortName() string {
	return ShortName(e.Header)
}

func (e Entry) IsDir() bool {
	return e.isRoot || e.Header.IsDir()
}

func (e Entry) Cluster() ClusterID {
	return e.Header.Cluster()
}

// Size is the file size in bytes. It is always 0 for directories.
func (e Entry) Size() int64 {
	if e.IsDir() {
		return 0
	}
	return int64(e.Header.FileSize)
}

// TreeEntry is a single line of the directory tree produced by Walk.
type TreeEntry struct {
	// Depth is 0 for the entries of the root directory.
	Depth   int
	Name    string
	IsDir   bool
	Size    int64
	Cluster ClusterID
}

// WalkFunc is called by Walk for each entry.
// If it returns SkipDir for a directory, Walk does not descend into it.
// If it returns SkipDir for a file, the remaining entries of that directory are skipped.
// Any other error stops the walk.
type WalkFunc func(entry TreeEntry) error

// SkipDir can be returned by a WalkFunc, see there.
var SkipDir = errors.New("skip this directory")

// Walk enumerates the whole directory tree depth first and calls fn for each entry.
// The "." and ".." entries are never reported.
func (v *Volume) Walk(fn WalkFunc) error {
	onPath := map[ClusterID]bool{v.layout.RootCluster: true}
	return v.walkDir(v.layout.RootCluster, 0, onPath, fn)
}

// List collects the result of Walk.
func (v *Volume) List() ([]TreeEntry, error) {
	var result []TreeEntry
	err := v.Walk(func(entry TreeEntry) error {
		result = append(result, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// walkDir walks the directory starting at cluster. onPath contains the start clusters of all
// directories from the root down to this one, which detects directories containing themselves.
func (v *Volume) walkDir(cluster ClusterID, depth int, onPath map[ClusterID]bool, fn WalkFunc) error {
	return v.scanDir(cluster, func(entry Entry) error {
		if entry.Header.IsDotEntry() {
			return nil
		}

		err := fn(TreeEntry{
			Depth:   depth,
			Name:    entry.Name(),
			IsDir:   entry.IsDir(),
			Size:    entry.Size(),
			Cluster: entry.Cluster(),
		})

		if !entry.IsDir() {
			if err == SkipDir {
				return errStopChain
			}
			return err
		}

		if err == SkipDir {
			return nil
		}
		if err != nil {
			return err
		}

		sub := entry.Cluster()
		if onPath[sub] {
			return checkpoint.From(fmt.Errorf("%w: directory %q at cluster %d is its own ancestor", ErrMalformedEncoding, entry.Name(), sub))
		}

		onPath[sub] = true
		defer delete(onPath, sub)

		v.log.WithFields(logrus.Fields{"dir": entry.Name(), "cluster": sub, "depth": depth + 1}).Debug("entering directory")
		return v.walkDir(sub, depth+1, onPath, fn)
	})
}

// readDir returns all entries of a directory except "." and "..".
func (v *Volume) readDir(cluster ClusterID) ([]Entry, error) {
	var entries []Entry
	err := v.scanDir(cluster, func(entry Entry) error {
		if !entry.Header.IsDotEntry() {
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}
	return entries, nil
}

// scanDir reads the directory starting at cluster one cluster at a time and calls fn
// for each live entry in on-disk order. Deleted and unused records as well as the
// volume label are skipped. Long name fragments are collected and attached to the
// short entry directly following them.
// fn may return errStopChain to end the scan early without an error.
func (v *Volume) scanDir(cluster ClusterID, fn func(entry Entry) error) error {
	var run []LongNameFragment

	return v.fat.followChain(cluster, func(current ClusterID) error {
		raw, err := v.storage.readAt(v.layout.ClusterOffset(current), int(v.layout.BytesPerCluster()))
		if err != nil {
			return checkpoint.From(err)
		}

		for i := 0; i < v.layout.EntriesPerCluster(); i++ {
			record, err := DecodeRecord(raw[i*recordSize : (i+1)*recordSize])
			if err != nil {
				return err
			}

			switch record.Kind {
			case RecordDeleted, RecordFree:
				run = nil
				continue
			case RecordLongName:
				// The last fragment is stored first, so it starts a new name.
				if record.Long.IsLast() {
					run = nil
				}
				run = append(run, record.Long)
				continue
			}

			entry, err := v.newEntry(record.Short, run)
			run = nil
			if err != nil {
				return err
			}

			if entry.Header.IsVolumeLabel() {
				continue
			}

			if err := fn(entry); err != nil {
				return err
			}
		}

		return nil
	})
}

// newEntry attaches the long name spelled by run (in on-disk order) to header.
func (v *Volume) newEntry(header ShortEntry, run []LongNameFragment) (Entry, error) {
	entry := Entry{Header: header}
	if len(run) == 0 {
		return entry, nil
	}

	sum := Checksum(header.Name)
	for _, fragment := range run {
		if fragment.Checksum != sum {
			v.log.WithFields(logrus.Fields{"name": ShortName(header), "checksum": fragment.Checksum, "expected": sum}).
				Debug("ignoring long name with wrong checksum")
			return entry, nil
		}
	}

	// LongName expects the order of a backwards scan starting at the short entry.
	backwards := make([]LongNameFragment, len(run))
	for i, fragment := range run {
		backwards[len(run)-1-i] = fragment
	}

	name, err := LongName(backwards)
	if errors.Is(err, ErrUnsupportedName) {
		v.log.WithError(err).WithField("name", ShortName(header)).Debug("using the short name instead of the long name")
		return entry, nil
	}
	if err != nil {
		return Entry{}, checkpoint.Wrapf(err, "decoding long name of %q", ShortName(header))
	}

	entry.LongName = trimLongName(name)
	return entry, nil
}
