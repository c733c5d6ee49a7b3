package fatinspect

import (
	"fmt"
	"strings"

	"github.com/aligator/fatinspect/checkpoint"
	"github.com/sirupsen/logrus"
)

// splitPath splits a slash delimited path into its components.
// Empty and "." components are dropped.
func splitPath(path string) []string {
	var components []string
	for _, component := range strings.Split(path, "/") {
		if component == "" || component == "." {
			continue
		}
		components = append(components, component)
	}
	return components
}

func (v *Volume) rootEntry() Entry {
	root := v.layout.RootCluster.Value()
	return Entry{
		Header: ShortEntry{
			Name:           [11]byte{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
			Attribute:      AttrDirectory,
			FirstClusterHI: uint16(root >> 16),
			FirstClusterLO: uint16(root),
		},
		isRoot: true,
	}
}

// matches compares the names of an entry case sensitive with a path component.
// Directories along the path may also be addressed by their short name up to the
// first space, the final component has to match the 8.3 name including the period.
// Long names are accepted for both.
func (e Entry) matches(component string, final bool) bool {
	if e.LongName != "" && e.LongName == component {
		return true
	}
	if ShortName(e.Header) == component {
		return true
	}
	return !final && comparableName(e.Header) == component
}

// Resolve walks the path component by component starting at the root directory
// and returns the entry of the last component.
// "", "/" and "." resolve to the root directory itself.
// If any component does not exist, ErrNotFound is returned.
func (v *Volume) Resolve(path string) (Entry, error) {
	components := splitPath(path)
	current := v.rootEntry()

	for i, component := range components {
		if !current.IsDir() {
			return Entry{}, checkpoint.From(fmt.Errorf("%w: %s", ErrNotDirectory, strings.Join(components[:i], "/")))
		}

		final := i == len(components)-1
		var found, fileMatch *Entry

		err := v.scanDir(current.Cluster(), func(entry Entry) error {
			if entry.Header.IsDotEntry() || !entry.matches(component, final) {
				return nil
			}
			// A directory further down the path wins over a file with the same name.
			if !final && !entry.IsDir() {
				if fileMatch == nil {
					fileMatch = &entry
				}
				return nil
			}
			found = &entry
			return errStopChain
		})
		if err != nil {
			return Entry{}, checkpoint.Wrapf(err, "resolving %q", path)
		}

		if found == nil {
			found = fileMatch
		}

		if found == nil {
			return Entry{}, checkpoint.From(fmt.Errorf("%w: %s", ErrNotFound, path))
		}

		v.log.WithFields(logrus.Fields{"component": component, "cluster": found.Cluster(), "size": found.Size()}).Debug("resolved path component")
		current = *found
	}

	return current, nil
}
