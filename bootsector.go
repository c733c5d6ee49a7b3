package fatinspect

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/aligator/fatinspect/checkpoint"
	"github.com/go-restruct/restruct"
)

// VolumeLayout contains the geometry of a volume and everything derived from it.
// It is built once when the volume is opened and never changes afterwards.
type VolumeLayout struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCount          uint8
	SectorsPerFAT     uint32
	RootCluster       ClusterID
	Media             uint8
	FSInfoSector      uint16
	TotalSectors      uint32
}

// FATRegionStart is the byte offset of the first FAT.
func (l VolumeLayout) FATRegionStart() int64 {
	return int64(l.BytesPerSector) * int64(l.ReservedSectors)
}

// FATSize is the size of one FAT in bytes.
func (l VolumeLayout) FATSize() int64 {
	return int64(l.SectorsPerFAT) * int64(l.BytesPerSector)
}

// DataRegionStart is the byte offset of cluster 2.
func (l VolumeLayout) DataRegionStart() int64 {
	return l.FATRegionStart() + int64(l.FATCount)*l.FATSize()
}

func (l VolumeLayout) BytesPerCluster() uint32 {
	return uint32(l.BytesPerSector) * uint32(l.SectorsPerCluster)
}

// EntriesPerCluster is the number of 32 byte directory records in one cluster.
func (l VolumeLayout) EntriesPerCluster() int {
	return int(l.BytesPerCluster() / recordSize)
}

// FATEntryCount is the number of 4 byte entries one FAT can hold.
func (l VolumeLayout) FATEntryCount() uint32 {
	return uint32(l.FATSize() / 4)
}

// ClusterOffset is the byte offset of the given data cluster.
// Only clusters >= 2 have a position in the data region.
func (l VolumeLayout) ClusterOffset(cluster ClusterID) int64 {
	return l.DataRegionStart() + (int64(cluster)-2)*int64(l.BytesPerCluster())
}

// TotalBytes is the size of the whole volume.
func (l VolumeLayout) TotalBytes() uint64 {
	return uint64(l.TotalSectors) * uint64(l.BytesPerSector)
}

func (l VolumeLayout) validate() error {
	if l.BytesPerSector == 0 {
		return fmt.Errorf("%w: bytes per sector is 0", ErrInvalidBootSector)
	}
	if l.SectorsPerCluster == 0 {
		return fmt.Errorf("%w: sectors per cluster is 0", ErrInvalidBootSector)
	}
	if l.BytesPerCluster()%recordSize != 0 {
		return fmt.Errorf("%w: cluster size %d is no multiple of %d", ErrInvalidBootSector, l.BytesPerCluster(), recordSize)
	}
	return nil
}

// decodeBootSector reads a boot sector from raw. Apart from the
// geometry needed for any offset calculation nothing is validated.
// A corrupt sector shows up as signature failure later.
func decodeBootSector(raw []byte) (BootSector, VolumeLayout, error) {
	var bs BootSector
	if err := restruct.Unpack(raw, binary.LittleEndian, &bs); err != nil {
		return BootSector{}, VolumeLayout{}, checkpoint.Wrap(err, ErrInvalidBootSector)
	}

	totalSectors := bs.TotalSectors32
	if totalSectors == 0 {
		totalSectors = uint32(bs.TotalSectors16)
	}

	layout := VolumeLayout{
		BytesPerSector:    bs.BytesPerSector,
		SectorsPerCluster: bs.SectorsPerCluster,
		ReservedSectors:   bs.ReservedSectorCount,
		FATCount:          bs.NumFATs,
		SectorsPerFAT:     bs.FATSize32,
		RootCluster:       ClusterID(bs.RootCluster),
		Media:             bs.Media,
		FSInfoSector:      bs.FSInfoSector,
		TotalSectors:      totalSectors,
	}

	if err := layout.validate(); err != nil {
		return BootSector{}, VolumeLayout{}, checkpoint.From(err)
	}

	return bs, layout, nil
}

func decodeFSInfo(raw []byte) (FSInfo, error) {
	var info FSInfo
	if err := restruct.Unpack(raw, binary.LittleEndian, &info); err != nil {
		return FSInfo{}, checkpoint.Wrap(err, ErrMalformedEncoding)
	}
	return info, nil
}

// Label returns the volume label without padding.
func (b BootSector) Label() string {
	return strings.TrimRight(string(b.VolumeLabel[:]), " \x00")
}

// OEM returns the OEM name without padding.
func (b BootSector) OEM() string {
	return strings.TrimRight(string(b.OEMName[:]), " \x00")
}

// FSTypeName returns the informational file system type string, usually "FAT32".
func (b BootSector) FSTypeName() string {
	return strings.TrimRight(string(b.FileSystemType[:]), " \x00")
}
