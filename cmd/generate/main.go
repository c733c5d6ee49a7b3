package main

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/aligator/fatinspect/fattest"
)

// main for writing a small sample image to play with fatinspect.
// Can be executed using 'go run ./cmd/generate [target]' from the project root.
func main() {
	dest := filepath.Join("testdata", "sample.img")
	if len(os.Args) > 1 {
		dest = os.Args[1]
	}

	img := fattest.New(fattest.Options{
		Label:             "FATINSPECT",
		VolumeID:          0x2021CAFE,
		SectorsPerCluster: 2,
		SectorsPerFAT:     16,
		ModTime:           time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC),
	})

	root := img.Root()
	root.AddVolumeLabel("FATINSPECT")
	root.AddFile("README.TXT", []byte("Hello World\n"))
	root.AddLongFile("HelloWorldThisIsALoongFileName.txt", "HELLOW~1.TXT", bytes.Repeat([]byte("0123456789\n"), 300))
	root.AddDeleted("OLD.TXT")

	a := root.Mkdir("a")
	b := a.Mkdir("b")
	b.AddFile("file.txt", bytes.Repeat([]byte("FAT32 "), 400))

	docs := root.MkdirLong("Documents", "DOCUME~1")
	docs.AddFile("NOTES.MD", []byte("# Notes\n"))
	docs.AddLongFile("Shopping List.md", "SHOPPI~1.MD", []byte("- milk\n- bread\n"))

	root.AddFile("EMPTY.TXT", nil)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		panic(err)
	}

	if err := os.WriteFile(dest, img.Bytes(), 0644); err != nil {
		panic(err)
	}
}
