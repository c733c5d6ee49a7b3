package fatinspect

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestVolume_Name(t *testing.T) {
	v := testingNew(t, newSampleImage().img)
	require.Equal(t, "FAT32", v.Name())
}

func TestVolume_Open(t *testing.T) {
	s := newSampleImage()

	tests := []struct {
		name     string
		path     string
		wantDir  bool
		wantSize int64
		wantErr  error
	}{
		{name: "root", path: "/", wantDir: true},
		{name: "root as dot", path: ".", wantDir: true},
		{name: "file", path: "/a/b/file.txt", wantSize: int64(len(s.leafData))},
		{name: "directory", path: "/Documents", wantDir: true},
		{name: "missing", path: "/nope", wantErr: fs.ErrNotExist},
		{name: "file as directory", path: "/README.TXT/x", wantErr: ErrNotDirectory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testingNew(t, s.img)

			f, err := v.Open(tt.path)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var pathErr *os.PathError
				require.True(t, errors.As(err, &pathErr))
				require.Equal(t, "open", pathErr.Op)
				require.Equal(t, tt.path, pathErr.Path)
				return
			}
			require.NoError(t, err)
			defer f.Close()

			info, err := f.Stat()
			require.NoError(t, err)
			require.Equal(t, tt.wantDir, info.IsDir())
			require.Equal(t, tt.wantSize, info.Size())
		})
	}
}

func TestVolume_OpenFile(t *testing.T) {
	v := testingNew(t, newSampleImage().img)

	f, err := v.OpenFile("/README.TXT", os.O_RDONLY, 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	for _, flag := range []int{os.O_WRONLY, os.O_RDWR, os.O_CREATE, os.O_APPEND, os.O_TRUNC} {
		_, err := v.OpenFile("/README.TXT", flag, 0644)
		require.ErrorIs(t, err, syscall.EROFS)
	}
}

func TestVolume_ReadOnly(t *testing.T) {
	v := testingNew(t, newSampleImage().img)

	tests := []struct {
		name string
		call func() error
	}{
		{name: "Create", call: func() error { _, err := v.Create("/NEW.TXT"); return err }},
		{name: "Mkdir", call: func() error { return v.Mkdir("/NEW", 0755) }},
		{name: "MkdirAll", call: func() error { return v.MkdirAll("/NEW/SUB", 0755) }},
		{name: "Remove", call: func() error { return v.Remove("/README.TXT") }},
		{name: "RemoveAll", call: func() error { return v.RemoveAll("/a") }},
		{name: "Rename", call: func() error { return v.Rename("/README.TXT", "/OTHER.TXT") }},
		{name: "Chmod", call: func() error { return v.Chmod("/README.TXT", 0777) }},
		{name: "Chown", call: func() error { return v.Chown("/README.TXT", 1, 1) }},
		{name: "Chtimes", call: func() error { return v.Chtimes("/README.TXT", time.Now(), time.Now()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, syscall.EROFS) {
				t.Errorf("Volume.%v() error = %v, want %v", tt.name, err, syscall.EROFS)
			}
		})
	}

	// Nothing changed.
	data, err := afero.ReadFile(v, "/README.TXT")
	require.NoError(t, err)
	require.Equal(t, sampleReadme, string(data))
}

func TestVolume_Stat(t *testing.T) {
	v := testingNew(t, newSampleImage().img)

	info, err := v.Stat("/" + sampleLongName)
	require.NoError(t, err)
	require.Equal(t, sampleLongName, info.Name())
	require.Equal(t, int64(600), info.Size())
	require.Equal(t, os.FileMode(0444), info.Mode())
	require.Equal(t, sampleModTime, info.ModTime())

	_, err = v.Stat("/a/missing")
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestVolume_AferoHelpers(t *testing.T) {
	s := newSampleImage()
	v := testingNew(t, s.img)

	data, err := afero.ReadFile(v, "/a/b/file.txt")
	require.NoError(t, err)
	require.Equal(t, s.leafData, data)

	infos, err := afero.ReadDir(v, "/")
	require.NoError(t, err)
	var names []string
	for _, info := range infos {
		names = append(names, info.Name())
	}
	require.Equal(t, []string{"Documents", "EMPTY.TXT", sampleLongName, "README.TXT", "a"}, names)

	exists, err := afero.Exists(v, "/Documents/NOTES.MD")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = afero.Exists(v, "/Documents/MISSING.MD")
	require.NoError(t, err)
	require.False(t, exists)

	var walked []string
	err = afero.Walk(v, "/a", func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		walked = append(walked, path)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/a/b", "/a/b/file.txt"}, walked)
}

func TestVolume_ReadFileInPieces(t *testing.T) {
	s := newSampleImage()
	v := testingNew(t, s.img)

	f, err := v.Open("/" + sampleLongName)
	require.NoError(t, err)
	defer f.Close()

	var got []byte
	buf := make([]byte, 7)
	for {
		n, err := f.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	require.Equal(t, s.longData, got)

	_, err = f.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	rest, err := io.ReadAll(f)
	require.NoError(t, err)
	require.Equal(t, s.longData[590:], rest)

	p := make([]byte, 20)
	n, err := f.ReadAt(p, 505)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	require.Equal(t, s.longData[505:525], p)
}

func TestIOFS(t *testing.T) {
	s := newSampleImage()
	iofs := afero.IOFS{Fs: testingNew(t, s.img)}

	data, err := fs.ReadFile(iofs, "Documents/NOTES.MD")
	require.NoError(t, err)
	require.Equal(t, sampleNotes, string(data))

	_, err = fs.ReadFile(iofs, "Documents/missing")
	require.ErrorIs(t, err, fs.ErrNotExist)

	entries, err := fs.ReadDir(iofs, "a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "b", entries[0].Name())
	require.True(t, entries[0].IsDir())

	var walked []string
	err = fs.WalkDir(iofs, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		walked = append(walked, path)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		".",
		"Documents",
		"Documents/NOTES.MD",
		"EMPTY.TXT",
		sampleLongName,
		"README.TXT",
		"a",
		"a/b",
		"a/b/file.txt",
	}, walked)

	matches, err := fs.Glob(iofs, "*.TXT")
	require.NoError(t, err)
	require.Equal(t, []string{"EMPTY.TXT", "README.TXT"}, matches)
}
