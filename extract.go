package fatinspect

import (
	"fmt"
	"io"

	"github.com/aligator/fatinspect/checkpoint"
)

// ReadChunks streams the content of a file cluster by cluster.
// fn gets one chunk per cluster of the chain, each as long as a cluster
// except the last one which is cut at the file size.
// Empty files produce no chunk and do not read anything.
func (v *Volume) ReadChunks(entry Entry, fn func(chunk []byte) error) error {
	if entry.IsDir() {
		return checkpoint.From(fmt.Errorf("%w: %s", ErrIsDirectory, entry.Name()))
	}

	remaining := entry.Size()
	if remaining <= 0 {
		return nil
	}

	clusterSize := int64(v.layout.BytesPerCluster())
	err := v.fat.followChain(entry.Cluster(), func(cluster ClusterID) error {
		n := clusterSize
		if remaining < n {
			n = remaining
		}

		chunk, err := v.storage.readAt(v.layout.ClusterOffset(cluster), int(n))
		if err != nil {
			return checkpoint.From(err)
		}
		remaining -= n

		if err := fn(chunk); err != nil {
			return err
		}

		if remaining == 0 {
			return errStopChain
		}
		return nil
	})
	if err != nil {
		return err
	}

	if remaining > 0 {
		return checkpoint.From(fmt.Errorf("%w: cluster chain of %q ends %d bytes before the end of the file", ErrMalformedEncoding, entry.Name(), remaining))
	}
	return nil
}

// Get resolves path and writes the whole file to w.
// It returns the number of bytes written.
func (v *Volume) Get(path string, w io.Writer) (int64, error) {
	entry, err := v.Resolve(path)
	if err != nil {
		return 0, err
	}

	var written int64
	err = v.ReadChunks(entry, func(chunk []byte) error {
		n, err := w.Write(chunk)
		written += int64(n)
		return err
	})
	if err != nil {
		return written, checkpoint.Wrapf(err, "extracting %q", path)
	}

	return written, nil
}

// readFileAt reads up to readSize bytes starting at offset from the file starting at cluster.
// If the end of the file is reached, io.EOF is returned together with the data.
func (v *Volume) readFileAt(cluster ClusterID, fileSize int64, offset int64, readSize int64) ([]byte, error) {
	if offset >= fileSize {
		return nil, io.EOF
	}

	end := offset + readSize
	reachedEOF := false
	if end >= fileSize {
		end = fileSize
		reachedEOF = true
	}

	clusterSize := int64(v.layout.BytesPerCluster())
	result := make([]byte, 0, end-offset)

	var clusterStart int64
	err := v.fat.followChain(cluster, func(current ClusterID) error {
		clusterEnd := clusterStart + clusterSize
		defer func() { clusterStart = clusterEnd }()

		if clusterEnd <= offset {
			return nil
		}

		from := clusterStart
		if offset > from {
			from = offset
		}
		to := clusterEnd
		if end < to {
			to = end
		}

		data, err := v.storage.readAt(v.layout.ClusterOffset(current)+(from-clusterStart), int(to-from))
		if err != nil {
			return checkpoint.From(err)
		}
		result = append(result, data...)

		if clusterEnd >= end {
			return errStopChain
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if int64(len(result)) < end-offset {
		return result, checkpoint.From(fmt.Errorf("%w: cluster chain ends before the end of the file", ErrMalformedEncoding))
	}

	if reachedEOF {
		return result, io.EOF
	}
	return result, nil
}
