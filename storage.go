package fatinspect

import (
	"fmt"
	"io"
	"sync"

	"github.com/aligator/fatinspect/checkpoint"
)

// storage is the raw access to the medium. Every read is a single positioned
// read, so two operations can never interleave a seek and a read.
type storage struct {
	reader io.ReaderAt
}

// readAt reads exactly size bytes at offset.
// A short read is reported as io.ErrUnexpectedEOF wrapped by ErrIO.
func (s storage) readAt(offset int64, size int) ([]byte, error) {
	if offset < 0 {
		return nil, checkpoint.From(fmt.Errorf("%w: negative offset %d", ErrIO, offset))
	}

	buffer := make([]byte, size)
	n, err := s.reader.ReadAt(buffer, offset)
	// A ReaderAt may return io.EOF together with a complete read at the end of the medium.
	if n == size {
		return buffer, nil
	}

	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, checkpoint.Wrapf(err, "%w: read %d of %d bytes at offset %d", ErrIO, n, size, offset)
}

// readerAtFromSeeker serializes each seek and read pair of an io.ReadSeeker
// so that it can be used as io.ReaderAt.
type readerAtFromSeeker struct {
	lock   sync.Mutex
	reader io.ReadSeeker
}

func (r *readerAtFromSeeker) ReadAt(p []byte, offset int64) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, err := r.reader.Seek(offset, io.SeekStart); err != nil {
		return 0, err
	}

	return io.ReadFull(r.reader, p)
}
