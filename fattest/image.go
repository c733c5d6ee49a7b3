// Package fattest builds small FAT32 images in memory.
//
// The images follow the on-disk layout exactly (boot sector, FSInfo, FATs,
// directory records, long names) but are far smaller than a real FAT32 volume
// would be. They are meant for tests and for generating sample images.
// Records can also be written raw, which allows building broken images.
package fattest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

const (
	RecordSize = 32

	AttrReadOnly  = 0x01
	AttrHidden    = 0x02
	AttrSystem    = 0x04
	AttrVolumeID  = 0x08
	AttrDirectory = 0x10
	AttrArchive   = 0x20
	AttrLongName  = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID

	EOC = 0x0FFFFFFF
	Bad = 0x0FFFFFF7
)

// Options describe the geometry of the image. Zero values are replaced by defaults.
type Options struct {
	BytesPerSector    uint16 // 512
	SectorsPerCluster uint8  // 1
	ReservedSectors   uint16 // 32
	NumFATs           uint8  // 2
	SectorsPerFAT     uint32 // 4, which allows 510 data clusters with 512 byte sectors
	Media             uint8  // 0xF8
	OEMName           string // "MSWIN4.1"
	Label             string // "NO NAME"
	VolumeID          uint32
	// ModTime is written into every entry. The zero value writes zero date fields.
	ModTime time.Time
}

func (o *Options) setDefaults() {
	if o.BytesPerSector == 0 {
		o.BytesPerSector = 512
	}
	if o.SectorsPerCluster == 0 {
		o.SectorsPerCluster = 1
	}
	if o.ReservedSectors == 0 {
		o.ReservedSectors = 32
	}
	if o.NumFATs == 0 {
		o.NumFATs = 2
	}
	if o.SectorsPerFAT == 0 {
		o.SectorsPerFAT = 4
	}
	if o.Media == 0 {
		o.Media = 0xF8
	}
	if o.OEMName == "" {
		o.OEMName = "MSWIN4.1"
	}
	if o.Label == "" {
		o.Label = "NO NAME"
	}
}

// Image is a FAT32 image under construction.
// The methods panic if the image runs out of clusters or a name does not fit,
// which is a bug in the calling test.
type Image struct {
	opts Options
	data []byte

	nextFree uint32
	root     *Dir

	freeCountOverride *uint32
	brokenFSInfo      bool
}

const rootCluster = 2

// New creates an empty image with only the root directory.
func New(opts Options) *Image {
	opts.setDefaults()

	img := &Image{opts: opts, nextFree: rootCluster + 1}
	img.data = make([]byte, int64(img.TotalSectors())*int64(opts.BytesPerSector))

	img.writeBootSector()
	img.SetFAT(0, 0x0FFFFF00|uint32(opts.Media))
	img.SetFAT(1, EOC)
	img.SetFAT(rootCluster, EOC)

	img.root = &Dir{img: img, chain: []uint32{rootCluster}}
	return img
}

// ClusterSize is the number of bytes in one cluster.
func (img *Image) ClusterSize() int {
	return int(img.opts.BytesPerSector) * int(img.opts.SectorsPerCluster)
}

// FATEntries is the number of entries of one FAT.
func (img *Image) FATEntries() uint32 {
	return img.opts.SectorsPerFAT * uint32(img.opts.BytesPerSector) / 4
}

// TotalSectors is the size of the image in sectors.
func (img *Image) TotalSectors() uint32 {
	clusters := img.FATEntries() - 2
	return uint32(img.opts.ReservedSectors) +
		uint32(img.opts.NumFATs)*img.opts.SectorsPerFAT +
		clusters*uint32(img.opts.SectorsPerCluster)
}

func (img *Image) fatStart(fat int) int64 {
	return int64(img.opts.ReservedSectors)*int64(img.opts.BytesPerSector) +
		int64(fat)*int64(img.opts.SectorsPerFAT)*int64(img.opts.BytesPerSector)
}

// DataStart is the byte offset of cluster 2.
func (img *Image) DataStart() int64 {
	return img.fatStart(int(img.opts.NumFATs))
}

// ClusterOffset is the byte offset of a data cluster.
func (img *Image) ClusterOffset(cluster uint32) int64 {
	return img.DataStart() + (int64(cluster)-2)*int64(img.ClusterSize())
}

// SetFAT writes value into the entry of cluster in every FAT.
func (img *Image) SetFAT(cluster uint32, value uint32) {
	for i := 0; i < int(img.opts.NumFATs); i++ {
		offset := img.fatStart(i) + int64(cluster)*4
		binary.LittleEndian.PutUint32(img.data[offset:], value)
	}
}

// FAT reads the entry of cluster from the first FAT.
func (img *Image) FAT(cluster uint32) uint32 {
	return binary.LittleEndian.Uint32(img.data[img.fatStart(0)+int64(cluster)*4:])
}

// SetFreeCount stores a fixed free count in the FSInfo sector instead of the real one.
func (img *Image) SetFreeCount(count uint32) {
	img.freeCountOverride = &count
}

// BreakFSInfo writes an FSInfo sector with a wrong lead signature.
func (img *Image) BreakFSInfo() {
	img.brokenFSInfo = true
}

// FreeClusters counts the unused clusters.
func (img *Image) FreeClusters() uint32 {
	var free uint32
	for c := uint32(2); c < img.FATEntries(); c++ {
		if img.FAT(c)&0x0FFFFFFF == 0 {
			free++
		}
	}
	return free
}

// Root returns the root directory.
func (img *Image) Root() *Dir {
	return img.root
}

// Bytes finalizes the FSInfo sector and returns the image.
// The returned slice is the image itself, changes to it change the image.
func (img *Image) Bytes() []byte {
	img.writeFSInfo()
	return img.data
}

// Reader returns a reader over the finalized image.
func (img *Image) Reader() *bytes.Reader {
	return bytes.NewReader(img.Bytes())
}

// allocate reserves count clusters, links them as a chain and returns them.
func (img *Image) allocate(count int) []uint32 {
	chain := make([]uint32, count)
	for i := range chain {
		if img.nextFree >= img.FATEntries() {
			panic("fattest: image is full")
		}
		chain[i] = img.nextFree
		img.nextFree++

		if i > 0 {
			img.SetFAT(chain[i-1], chain[i])
		}
		img.SetFAT(chain[i], EOC)
	}
	return chain
}

func (img *Image) writeBootSector() {
	o := img.opts
	s := img.data[:512]

	s[0], s[1], s[2] = 0xEB, 0x58, 0x90
	copy(s[3:11], padded(o.OEMName, 8))
	binary.LittleEndian.PutUint16(s[11:], o.BytesPerSector)
	s[13] = o.SectorsPerCluster
	binary.LittleEndian.PutUint16(s[14:], o.ReservedSectors)
	s[16] = o.NumFATs
	// RootEntryCount, TotalSectors16 and FATSize16 stay 0 for FAT32.
	s[21] = o.Media
	binary.LittleEndian.PutUint16(s[24:], 32)
	binary.LittleEndian.PutUint16(s[26:], 64)
	binary.LittleEndian.PutUint32(s[32:], img.TotalSectors())
	binary.LittleEndian.PutUint32(s[36:], o.SectorsPerFAT)
	binary.LittleEndian.PutUint32(s[44:], rootCluster)
	binary.LittleEndian.PutUint16(s[48:], 1) // FSInfo sector
	binary.LittleEndian.PutUint16(s[50:], 6) // backup boot sector
	s[64] = 0x80
	s[66] = 0x29
	binary.LittleEndian.PutUint32(s[67:], o.VolumeID)
	copy(s[71:82], padded(o.Label, 11))
	copy(s[82:90], padded("FAT32", 8))
	s[510], s[511] = 0x55, 0xAA
}

func (img *Image) writeFSInfo() {
	offset := int64(img.opts.BytesPerSector)
	s := img.data[offset : offset+512]

	lead := uint32(0x41615252)
	if img.brokenFSInfo {
		lead = 0
	}
	free := img.FreeClusters()
	if img.freeCountOverride != nil {
		free = *img.freeCountOverride
	}

	binary.LittleEndian.PutUint32(s[0:], lead)
	binary.LittleEndian.PutUint32(s[484:], 0x61417272)
	binary.LittleEndian.PutUint32(s[488:], free)
	binary.LittleEndian.PutUint32(s[492:], img.nextFree)
	binary.LittleEndian.PutUint32(s[508:], 0xAA550000)
}

func padded(s string, size int) []byte {
	if len(s) > size {
		panic(fmt.Sprintf("fattest: %q is longer than %d bytes", s, size))
	}
	return []byte(s + strings.Repeat(" ", size-len(s)))
}

// ShortName converts "NAME.EXT" into the 11 byte on-disk form. The case is kept as it is.
// "." and ".." are converted to the names of the directory self and parent links.
func ShortName(name string) [11]byte {
	var result [11]byte
	if name == "." || name == ".." {
		copy(result[:], padded(name, 11))
		return result
	}

	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		base, ext = name[:i], name[i+1:]
	}
	copy(result[:8], padded(base, 8))
	copy(result[8:], padded(ext, 3))
	return result
}

// Checksum calculates the long name checksum of a short name.
func Checksum(name [11]byte) byte {
	var sum byte
	for _, c := range name {
		sum = (sum>>1 | sum<<7) + c
	}
	return sum
}

// ShortRecord encodes a short directory entry.
func ShortRecord(name [11]byte, attr byte, cluster uint32, size uint32, modTime time.Time) [RecordSize]byte {
	var r [RecordSize]byte
	copy(r[0:11], name[:])
	r[11] = attr
	binary.LittleEndian.PutUint16(r[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(r[26:], uint16(cluster))
	binary.LittleEndian.PutUint32(r[28:], size)

	if !modTime.IsZero() {
		date := uint16(modTime.Year()-1980)<<9 | uint16(modTime.Month())<<5 | uint16(modTime.Day())
		clock := uint16(modTime.Hour())<<11 | uint16(modTime.Minute())<<5 | uint16(modTime.Second()/2)
		binary.LittleEndian.PutUint16(r[14:], clock)
		binary.LittleEndian.PutUint16(r[16:], date)
		binary.LittleEndian.PutUint16(r[22:], clock)
		binary.LittleEndian.PutUint16(r[24:], date)
	}
	return r
}

// LongNameRecords encodes the long name fragments for a short name in on-disk order,
// which means the last fragment comes first.
func LongNameRecords(long string, short [11]byte) [][RecordSize]byte {
	units := utf16.Encode([]rune(long))
	count := (len(units) + 12) / 13
	sum := Checksum(short)

	records := make([][RecordSize]byte, 0, count)
	for seq := count; seq >= 1; seq-- {
		records = append(records, LongNameFragment(seq, seq == count, sum, fragmentUnits(units, seq)))
	}
	return records
}

// fragmentUnits returns the 13 units of fragment seq including terminator and padding.
func fragmentUnits(units []uint16, seq int) [13]uint16 {
	var result [13]uint16
	for i := range result {
		pos := (seq-1)*13 + i
		switch {
		case pos < len(units):
			result[i] = units[pos]
		case pos == len(units):
			result[i] = 0x0000
		default:
			result[i] = 0xFFFF
		}
	}
	return result
}

// LongNameFragment encodes a single long name fragment.
func LongNameFragment(seq int, last bool, checksum byte, units [13]uint16) [RecordSize]byte {
	var r [RecordSize]byte
	r[0] = byte(seq)
	if last {
		r[0] |= 0x40
	}
	r[11] = AttrLongName
	r[13] = checksum

	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint16(r[1+i*2:], units[i])
	}
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint16(r[14+i*2:], units[5+i])
	}
	for i := 0; i < 2; i++ {
		binary.LittleEndian.PutUint16(r[28+i*2:], units[11+i])
	}
	return r
}
