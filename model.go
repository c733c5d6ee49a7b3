// File model contains the structs which match the direct structures of the FAT32 filesystem.

package fatinspect

// BootSector is the first sector of a FAT32 volume.
type BootSector struct {
	JumpBoot            [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectorCount uint16
	NumFATs             uint8
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               uint8
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32

	// FAT32 specific part.
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfoSector     uint16
	BackupBootSector uint16
	Reserved         [12]byte
	DriveNumber      uint8
	Reserved1        uint8
	BootSignature    uint8
	VolumeID         uint32
	VolumeLabel      [11]byte
	FileSystemType   [8]byte
	BootCode         [420]byte
	Signature        uint16
}

const bootSectorSize = 512

// FSInfo is the FAT32 sector which caches the free cluster count.
type FSInfo struct {
	LeadSignature   uint32
	Reserved1       [480]byte
	StructSignature uint32
	FreeCount       uint32
	NextFree        uint32
	Reserved2       [12]byte
	TrailSignature  uint32
}

const (
	fsInfoSize = 512

	fsInfoLeadSignature   = 0x41615252
	fsInfoStructSignature = 0x61417272
	fsInfoTrailSignature  = 0xAA550000

	// fsInfoUnknown is stored in FreeCount and NextFree if the value is not known.
	fsInfoUnknown = 0xFFFFFFFF
)

// Valid reports whether all three signatures are present.
func (i FSInfo) Valid() bool {
	return i.LeadSignature == fsInfoLeadSignature &&
		i.StructSignature == fsInfoStructSignature &&
		i.TrailSignature == fsInfoTrailSignature
}

// ShortEntry is a 32 byte directory record describing a file or directory.
type ShortEntry struct {
	Name            [11]byte
	Attribute       Attr
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// LongNameFragment is a 32 byte directory record holding up to 13 UTF-16
// code units of the long name of the short entry following it.
type LongNameFragment struct {
	Ordinal        byte
	Name1          [5]uint16
	Attribute      Attr
	Type           byte
	Checksum       byte
	Name2          [6]uint16
	FirstClusterLO uint16
	Name3          [2]uint16
}
