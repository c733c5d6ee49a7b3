package fatinspect

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_readAt(t *testing.T) {
	s := storage{reader: strings.NewReader("0123456789")}

	tests := []struct {
		name    string
		offset  int64
		size    int
		want    string
		wantErr error
	}{
		{name: "start", offset: 0, size: 4, want: "0123"},
		{name: "until the end", offset: 6, size: 4, want: "6789"},
		{name: "short read", offset: 8, size: 4, wantErr: io.ErrUnexpectedEOF},
		{name: "behind the end", offset: 20, size: 1, wantErr: io.ErrUnexpectedEOF},
		{name: "negative offset", offset: -1, size: 1, wantErr: ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.readAt(tt.offset, tt.size)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrIO)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, string(got))
		})
	}
}

func TestReaderAtFromSeeker(t *testing.T) {
	data := bytes.Repeat([]byte("abcdefgh"), 128)
	r := &readerAtFromSeeker{reader: bytes.NewReader(data)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(offset int64) {
			defer wg.Done()

			p := make([]byte, 8)
			n, err := r.ReadAt(p, offset)
			assert.NoError(t, err)
			assert.Equal(t, 8, n)
			assert.Equal(t, data[offset:offset+8], p)
		}(int64(i * 37))
	}
	wg.Wait()

	p := make([]byte, 8)
	n, err := r.ReadAt(p, int64(len(data)-4))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, 4, n)
}
