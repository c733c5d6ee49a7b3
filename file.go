package fatinspect

import (
	"fmt"
	"io"
	"os"
	"path"
	"syscall"

	"github.com/aligator/fatinspect/checkpoint"
	"github.com/spf13/afero"
)

// fatFileFs provides all methods needed from a volume for File.
// It mainly exists to be able to mock the Volume in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package fatinspect
type fatFileFs interface {
	readFileAt(cluster ClusterID, fileSize int64, offset int64, readSize int64) ([]byte, error)
	readDir(cluster ClusterID) ([]Entry, error)
}

// File is an opened file or directory of a volume. It implements afero.File.
// All writing methods fail with syscall.EROFS.
type File struct {
	fs   fatFileFs
	path string

	isDirectory bool
	isReadOnly  bool
	isHidden    bool
	isSystem    bool

	firstCluster ClusterID
	stat         os.FileInfo
	offset       int64

	closed bool
}

var _ afero.File = (*File)(nil)

func newFile(fs fatFileFs, path string, entry Entry) *File {
	return &File{
		fs:           fs,
		path:         path,
		isDirectory:  entry.IsDir(),
		isReadOnly:   entry.Header.Attribute&AttrReadOnly != 0,
		isHidden:     entry.Header.Attribute&AttrHidden != 0,
		isSystem:     entry.Header.Attribute&AttrSystem != 0,
		firstCluster: entry.Cluster(),
		stat:         entry.FileInfo(),
	}
}

// IsReadOnly reports whether the read-only attribute is set.
func (f *File) IsReadOnly() bool {
	return f.isReadOnly
}

func (f *File) IsHidden() bool {
	return f.isHidden
}

func (f *File) IsSystem() bool {
	return f.isSystem
}

// Close releases the file. Every later call fails with os.ErrClosed.
func (f *File) Close() error {
	if err := f.checkClosed("close"); err != nil {
		return err
	}
	*f = File{path: f.path, closed: true}
	return nil
}

func (f *File) checkClosed(op string) error {
	if f.closed {
		return &os.PathError{Op: op, Path: f.path, Err: os.ErrClosed}
	}
	return nil
}

func (f *File) Read(p []byte) (n int, err error) {
	if err := f.checkClosed("read"); err != nil {
		return 0, err
	}

	if p == nil {
		return 0, nil
	}

	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	// Reading a file if the size has been already reached, makes no sense.
	if f.stat.Size() <= f.offset {
		return 0, io.EOF
	}

	data, err := f.fs.readFileAt(f.firstCluster, f.stat.Size(), f.offset, int64(len(p)))
	copy(p, data)

	// Seek even if an error occurred, errors from reading are used even if seek also errors.
	_, seekErr := f.Seek(int64(len(data)), io.SeekCurrent)

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	if seekErr != nil {
		return len(data), checkpoint.Wrap(seekErr, ErrReadFile)
	}

	return len(data), nil
}

func (f *File) ReadAt(p []byte, off int64) (n int, err error) {
	if err := f.checkClosed("read"); err != nil {
		return 0, err
	}

	if p == nil {
		return 0, nil
	}

	if f.isDirectory {
		return 0, checkpoint.Wrap(syscall.EISDIR, ErrReadFile)
	}

	// Reading over the end makes no sense.
	if f.stat.Size() <= off {
		return 0, io.EOF
	}

	data, err := f.fs.readFileAt(f.firstCluster, f.stat.Size(), off, int64(len(p)))
	copy(p, data)

	if err != nil {
		return len(data), checkpoint.Wrap(err, ErrReadFile)
	}

	if len(data) < len(p) {
		return len(data), checkpoint.Wrap(io.ErrUnexpectedEOF, ErrReadFile)
	}
	return len(data), nil
}

// Seek jumps to a specific offset in the file. This affects all Read operations except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkClosed("seek"); err != nil {
		return 0, err
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset = f.offset + offset
	case io.SeekEnd:
		offset = f.stat.Size() + offset
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > f.stat.Size() {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	f.offset = offset
	return offset, nil
}

func (f *File) Write(p []byte) (n int, err error) {
	return 0, f.readOnly("write")
}

func (f *File) WriteAt(p []byte, off int64) (n int, err error) {
	return 0, f.readOnly("write")
}

func (f *File) WriteString(s string) (ret int, err error) {
	return f.Write([]byte(s))
}

func (f *File) Sync() error {
	return f.readOnly("sync")
}

func (f *File) Truncate(size int64) error {
	return f.readOnly("truncate")
}

func (f *File) readOnly(op string) error {
	return &os.PathError{Op: op, Path: f.path, Err: syscall.EROFS}
}

func (f *File) Name() string {
	if f.stat == nil {
		return path.Base(f.path)
	}
	return f.stat.Name()
}

// Readdir reads the contents of a directory.
// For count > 0 at most count entries are returned and io.EOF once there are no entries left.
// For count <= 0 all remaining entries are returned.
// May return syscall.ENOTDIR if the current File is no directory.
func (f *File) Readdir(count int) ([]os.FileInfo, error) {
	if err := f.checkClosed("readdir"); err != nil {
		return nil, err
	}

	if !f.isDirectory {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := f.fs.readDir(f.firstCluster)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	start := int(f.offset)
	if start > len(content) {
		start = len(content)
	}
	remaining := content[start:]

	if count > 0 {
		if len(remaining) == 0 {
			return nil, io.EOF
		}
		if len(remaining) > count {
			remaining = remaining[:count]
		}
	}

	f.offset += int64(len(remaining))

	result := make([]os.FileInfo, len(remaining))
	for i := range remaining {
		result[i] = remaining[i].FileInfo()
	}

	return result, nil
}

func (f *File) Readdirnames(count int) ([]string, error) {
	content, err := f.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}

	return names, nil
}

func (f *File) Stat() (os.FileInfo, error) {
	if err := f.checkClosed("stat"); err != nil {
		return nil, err
	}
	return f.stat, nil
}
