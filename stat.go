package fatinspect

import (
	"os"
	"time"
)

// FileInfo returns the entry as os.FileInfo. Sys() returns the ShortEntry.
func (e Entry) FileInfo() os.FileInfo {
	return entryFileInfo{e}
}

type entryFileInfo struct {
	entry Entry
}

func (e entryFileInfo) Name() string {
	return e.entry.Name()
}

func (e entryFileInfo) Size() int64 {
	return e.entry.Size()
}

// Mode is always read-only as the volume cannot be written.
func (e entryFileInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

func (e entryFileInfo) ModTime() time.Time {
	return timestamp(e.entry.Header.WriteDate, e.entry.Header.WriteTime)
}

func (e entryFileInfo) IsDir() bool {
	return e.entry.IsDir()
}

func (e entryFileInfo) Sys() interface{} {
	return e.entry.Header
}
