package fatinspect

import (
	"io"

	"github.com/aligator/fatinspect/checkpoint"
	"github.com/sirupsen/logrus"
)

// Options configure how a volume is opened.
type Options struct {
	// SkipChecks opens the volume even if the FAT signature is invalid.
	// Use with caution!
	SkipChecks bool

	// Logger receives debug traces. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Volume is an opened, read-only FAT32 volume.
// All information is read from the storage again for every operation,
// only the layout from the boot sector is kept.
type Volume struct {
	storage storage
	boot    BootSector
	layout  VolumeLayout
	fat     *FAT
	log     logrus.FieldLogger
}

// Open reads the boot sector of the volume and verifies the FAT signature.
func Open(reader io.ReaderAt, opts Options) (*Volume, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := storage{reader: reader}
	raw, err := s.readAt(0, bootSectorSize)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrInvalidBootSector)
	}

	boot, layout, err := decodeBootSector(raw)
	if err != nil {
		return nil, err
	}

	v := &Volume{
		storage: s,
		boot:    boot,
		layout:  layout,
		fat:     newFAT(s, layout, log),
		log:     log,
	}

	log.WithFields(logrus.Fields{
		"label":             boot.Label(),
		"bytesPerSector":    layout.BytesPerSector,
		"sectorsPerCluster": layout.SectorsPerCluster,
		"rootCluster":       layout.RootCluster,
		"dataRegionStart":   layout.DataRegionStart(),
	}).Debug("loaded boot sector")

	if opts.SkipChecks {
		return v, nil
	}

	if err := v.fat.VerifySignature(); err != nil {
		return nil, err
	}

	return v, nil
}

// New opens a FAT32 volume from the given reader.
func New(reader io.ReaderAt) (*Volume, error) {
	return Open(reader, Options{})
}

// NewSkipChecks opens a FAT32 volume just like New but does not verify the
// FAT signature, which may allow you to open not perfectly standard volumes.
// Use with caution!
func NewSkipChecks(reader io.ReaderAt) (*Volume, error) {
	return Open(reader, Options{SkipChecks: true})
}

// NewFromReadSeeker opens a FAT32 volume from a reader which can only seek.
// Seek and read are done under a lock, so the volume may still be used concurrently.
func NewFromReadSeeker(reader io.ReadSeeker, opts Options) (*Volume, error) {
	return Open(&readerAtFromSeeker{reader: reader}, opts)
}

// Layout returns the geometry of the volume.
func (v *Volume) Layout() VolumeLayout {
	return v.layout
}

// BootSector returns the decoded boot sector.
func (v *Volume) BootSector() BootSector {
	return v.boot
}

// FAT gives direct access to the allocation table.
func (v *Volume) FAT() *FAT {
	return v.fat
}

// Label returns the volume label from the boot sector.
func (v *Volume) Label() string {
	return v.boot.Label()
}

// OEMName returns the name of the system that formatted the volume.
func (v *Volume) OEMName() string {
	return v.boot.OEM()
}

// FSInfo reads the FSInfo sector.
func (v *Volume) FSInfo() (FSInfo, error) {
	offset := int64(v.layout.FSInfoSector) * int64(v.layout.BytesPerSector)
	raw, err := v.storage.readAt(offset, fsInfoSize)
	if err != nil {
		return FSInfo{}, checkpoint.From(err)
	}
	return decodeFSInfo(raw)
}

// FreeClusters returns the number of free clusters.
// The count cached in the FSInfo sector is used if it is valid, otherwise the FAT gets scanned.
func (v *Volume) FreeClusters() (uint32, error) {
	info, err := v.FSInfo()
	if err != nil {
		return 0, err
	}

	if info.Valid() && info.FreeCount != fsInfoUnknown {
		return info.FreeCount, nil
	}

	v.log.WithField("freeCount", info.FreeCount).Debug("FSInfo has no usable free count, scanning the FAT")
	return v.fat.CountFree()
}

// FreeSpaceBytes returns the free space of the volume in bytes.
func (v *Volume) FreeSpaceBytes() (uint64, error) {
	free, err := v.FreeClusters()
	if err != nil {
		return 0, err
	}
	return uint64(free) * uint64(v.layout.BytesPerCluster()), nil
}

// VolumeReport contains the key information about a volume.
type VolumeReport struct {
	DriveLabel        string `yaml:"drive_label"`
	OEMName           string `yaml:"oem_name"`
	VolumeID          uint32 `yaml:"volume_id"`
	FileSystemType    string `yaml:"file_system_type"`
	FreeSpaceKB       uint64 `yaml:"free_space_kb"`
	TotalSpaceKB      uint64 `yaml:"total_space_kb"`
	UsableSpaceKB     uint64 `yaml:"usable_space_kb"`
	SectorsPerCluster uint8  `yaml:"sectors_per_cluster"`
	BytesPerCluster   uint32 `yaml:"bytes_per_cluster"`
}

// Info collects the VolumeReport. The free space is read from the volume on each call.
func (v *Volume) Info() (VolumeReport, error) {
	free, err := v.FreeSpaceBytes()
	if err != nil {
		return VolumeReport{}, err
	}

	total := v.layout.TotalBytes()
	reserved := uint64(v.layout.FATRegionStart())
	fats := uint64(v.layout.FATCount) * uint64(v.layout.FATSize())

	var usable uint64
	if total > reserved+fats {
		usable = total - reserved - fats
	}

	return VolumeReport{
		DriveLabel:        v.Label(),
		OEMName:           v.OEMName(),
		VolumeID:          v.boot.VolumeID,
		FileSystemType:    v.boot.FSTypeName(),
		FreeSpaceKB:       free / 1024,
		TotalSpaceKB:      total / 1024,
		UsableSpaceKB:     usable / 1024,
		SectorsPerCluster: v.layout.SectorsPerCluster,
		BytesPerCluster:   v.layout.BytesPerCluster(),
	}, nil
}
