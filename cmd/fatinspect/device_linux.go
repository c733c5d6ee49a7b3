//go:build linux

package main

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// rawDevice reads a block device or image file with pread, bypassing any buffering of os.File.
type rawDevice struct {
	fd int
}

func openDevice(path string) (device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
	return &rawDevice{fd: fd}, nil
}

func (d *rawDevice) ReadAt(p []byte, off int64) (int, error) {
	read := 0
	for read < len(p) {
		n, err := unix.Pread(d.fd, p[read:], off+int64(read))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return read, err
		}
		if n == 0 {
			return read, io.EOF
		}
		read += n
	}
	return read, nil
}

func (d *rawDevice) Close() error {
	return unix.Close(d.fd)
}
