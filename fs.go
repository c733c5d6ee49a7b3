package fatinspect

import (
	"errors"
	"io/fs"
	"os"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// A Volume can be used as read-only afero.Fs. Wrap it in afero.IOFS to get an io/fs.FS.
var _ afero.Fs = (*Volume)(nil)

// Name returns the name of this filesystem implementation.
func (v *Volume) Name() string {
	return "FAT32"
}

// Open opens the file or directory at name for reading.
func (v *Volume) Open(name string) (afero.File, error) {
	entry, err := v.Resolve(name)
	if err != nil {
		return nil, v.pathError("open", name, err)
	}

	return newFile(v, name, entry), nil
}

// OpenFile only supports opening for reading.
func (v *Volume) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_TRUNC) != 0 {
		return nil, readOnlyError("open", name)
	}
	return v.Open(name)
}

func (v *Volume) Stat(name string) (os.FileInfo, error) {
	entry, err := v.Resolve(name)
	if err != nil {
		return nil, v.pathError("stat", name, err)
	}
	return entry.FileInfo(), nil
}

// pathError keeps the plain fs.ErrNotExist for missing paths as os.IsNotExist does not unwrap.
// The full cause is logged.
func (v *Volume) pathError(op, name string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		v.log.WithError(err).WithField("path", name).Debug(op + " failed")
		err = fs.ErrNotExist
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}

func readOnlyError(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: syscall.EROFS}
}

func (v *Volume) Create(name string) (afero.File, error) {
	return nil, readOnlyError("create", name)
}

func (v *Volume) Mkdir(name string, perm os.FileMode) error {
	return readOnlyError("mkdir", name)
}

func (v *Volume) MkdirAll(path string, perm os.FileMode) error {
	return readOnlyError("mkdir", path)
}

func (v *Volume) Remove(name string) error {
	return readOnlyError("remove", name)
}

func (v *Volume) RemoveAll(path string) error {
	return readOnlyError("remove", path)
}

func (v *Volume) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EROFS}
}

func (v *Volume) Chmod(name string, mode os.FileMode) error {
	return readOnlyError("chmod", name)
}

func (v *Volume) Chown(name string, uid, gid int) error {
	return readOnlyError("chown", name)
}

func (v *Volume) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnlyError("chtimes", name)
}
