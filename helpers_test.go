package fatinspect

import (
	"bytes"
	"testing"
	"time"

	"github.com/aligator/fatinspect/fattest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var sampleModTime = time.Date(2024, 5, 17, 12, 30, 10, 0, time.UTC)

const (
	sampleLongName  = "HelloWorldThisIsALoongFileName.txt"
	sampleReadme    = "Hello World\n"
	sampleNotes     = "notes"
	sampleVolumeID  = 0x1234ABCD
	sampleLabel     = "TESTVOL"
	sampleClusterSz = 512
)

// sample holds the image built by newSampleImage and the facts tests check against.
type sample struct {
	img *fattest.Image

	longData  []byte
	leafData  []byte
	leafFirst uint32
	longFirst uint32
	notesDir  uint32
}

// newSampleImage builds this tree:
//  README.TXT
//  HelloWorldThisIsALoongFileName.txt (HELLOW~1.TXT, 2 clusters)
//  OLD.TXT (deleted)
//  a/
//    b/
//      file.txt (one cluster + 10 bytes)
//  Documents/ (DOCUME~1)
//    NOTES.MD
//  EMPTY.TXT
func newSampleImage() *sample {
	img := fattest.New(fattest.Options{
		Label:    sampleLabel,
		VolumeID: sampleVolumeID,
		ModTime:  sampleModTime,
	})

	s := &sample{
		img:      img,
		longData: bytes.Repeat([]byte("0123456789"), 60),
		leafData: make([]byte, sampleClusterSz+10),
	}
	for i := range s.leafData {
		s.leafData[i] = byte(i % 251)
	}

	root := img.Root()
	root.AddVolumeLabel(sampleLabel)
	root.AddFile("README.TXT", []byte(sampleReadme))
	s.longFirst = root.AddLongFile(sampleLongName, "HELLOW~1.TXT", s.longData)
	root.AddDeleted("OLD.TXT")

	a := root.Mkdir("a")
	b := a.Mkdir("b")
	s.leafFirst = b.AddFile("file.txt", s.leafData)

	docs := root.MkdirLong("Documents", "DOCUME~1")
	s.notesDir = docs.Cluster()
	docs.AddFile("NOTES.MD", []byte(sampleNotes))

	root.AddFile("EMPTY.TXT", nil)
	return s
}

// testingNew opens the image and fails the test on any error.
func testingNew(t *testing.T, img *fattest.Image) *Volume {
	t.Helper()

	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	v, err := Open(img.Reader(), Options{Logger: logger})
	require.NoError(t, err)
	return v
}

// treeNames returns the names of the entries in walk order.
func treeNames(entries []TreeEntry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}
