package fatinspect

import (
	"encoding/binary"
	"fmt"

	"github.com/aligator/fatinspect/checkpoint"
)

// Attr is the attribute byte of a directory record.
type Attr uint8

const (
	AttrReadOnly  Attr = 0x01
	AttrHidden    Attr = 0x02
	AttrSystem    Attr = 0x04
	AttrVolumeID  Attr = 0x08
	AttrDirectory Attr = 0x10
	AttrArchive   Attr = 0x20
	AttrLongName       = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID

	// attrLongNameMask selects the bits which decide if a record is a long name fragment.
	attrLongNameMask = AttrLongName | AttrDirectory | AttrArchive
)

const (
	recordSize = 32

	recordDeleted = 0xE5
	recordFree    = 0x00
	// recordKanjiE5 stands for a name really starting with 0xE5.
	recordKanjiE5 = 0x05

	lastFragmentFlag = 0x40
	ordinalMask      = 0x3F
)

// RecordKind tells which variant a decoded directory record is.
type RecordKind int

const (
	// RecordShort is a short (8.3) entry describing a file or directory.
	RecordShort RecordKind = iota
	// RecordLongName is a fragment of a long name.
	RecordLongName
	// RecordDeleted is a record of a deleted entry. It must not be interpreted further.
	RecordDeleted
	// RecordFree is a record which was never used.
	RecordFree
)

func (k RecordKind) String() string {
	switch k {
	case RecordShort:
		return "short"
	case RecordLongName:
		return "long name"
	case RecordDeleted:
		return "deleted"
	case RecordFree:
		return "free"
	default:
		return fmt.Sprintf("RecordKind(%d)", int(k))
	}
}

// Record is one decoded 32 byte directory record.
// Depending on Kind either Short or Long is filled.
type Record struct {
	Kind  RecordKind
	Short ShortEntry
	Long  LongNameFragment
}

// DecodeRecord decodes a raw 32 byte directory record.
func DecodeRecord(raw []byte) (Record, error) {
	if len(raw) != recordSize {
		return Record{}, checkpoint.From(fmt.Errorf("%w: directory record has %d bytes instead of %d", ErrMalformedEncoding, len(raw), recordSize))
	}

	switch {
	case raw[0] == recordDeleted:
		return Record{Kind: RecordDeleted}, nil
	case Attr(raw[11])&attrLongNameMask == AttrLongName:
		return Record{Kind: RecordLongName, Long: decodeLongNameFragment(raw)}, nil
	case raw[0] == recordFree:
		return Record{Kind: RecordFree}, nil
	default:
		return Record{Kind: RecordShort, Short: decodeShortEntry(raw)}, nil
	}
}

func decodeShortEntry(raw []byte) ShortEntry {
	var e ShortEntry
	copy(e.Name[:], raw[0:11])
	e.Attribute = Attr(raw[11])
	e.NTReserved = raw[12]
	e.CreateTimeTenth = raw[13]
	e.CreateTime = binary.LittleEndian.Uint16(raw[14:16])
	e.CreateDate = binary.LittleEndian.Uint16(raw[16:18])
	e.LastAccessDate = binary.LittleEndian.Uint16(raw[18:20])
	e.FirstClusterHI = binary.LittleEndian.Uint16(raw[20:22])
	e.WriteTime = binary.LittleEndian.Uint16(raw[22:24])
	e.WriteDate = binary.LittleEndian.Uint16(raw[24:26])
	e.FirstClusterLO = binary.LittleEndian.Uint16(raw[26:28])
	e.FileSize = binary.LittleEndian.Uint32(raw[28:32])
	return e
}

func decodeLongNameFragment(raw []byte) LongNameFragment {
	var f LongNameFragment
	f.Ordinal = raw[0]
	for i := range f.Name1 {
		f.Name1[i] = binary.LittleEndian.Uint16(raw[1+i*2:])
	}
	f.Attribute = Attr(raw[11])
	f.Type = raw[12]
	f.Checksum = raw[13]
	for i := range f.Name2 {
		f.Name2[i] = binary.LittleEndian.Uint16(raw[14+i*2:])
	}
	f.FirstClusterLO = binary.LittleEndian.Uint16(raw[26:28])
	for i := range f.Name3 {
		f.Name3[i] = binary.LittleEndian.Uint16(raw[28+i*2:])
	}
	return f
}

// Cluster combines both halves of the first cluster.
func (e ShortEntry) Cluster() ClusterID {
	return ClusterID(uint32(e.FirstClusterHI)<<16 | uint32(e.FirstClusterLO))
}

func (e ShortEntry) IsDir() bool {
	return e.Attribute&AttrDirectory == AttrDirectory
}

// IsVolumeLabel reports whether the entry only holds the volume label.
func (e ShortEntry) IsVolumeLabel() bool {
	return e.Attribute&(AttrVolumeID|AttrDirectory) == AttrVolumeID
}

// IsDotEntry reports whether the entry is one of the "." and ".." links
// every subdirectory starts with.
func (e ShortEntry) IsDotEntry() bool {
	name := ShortName(e)
	return name == "." || name == ".."
}

// IsLast reports whether this is the last fragment of its name, which is
// stored first on disk.
func (f LongNameFragment) IsLast() bool {
	return f.Ordinal&lastFragmentFlag != 0
}

// Sequence is the 1-based position of the fragment within the name.
func (f LongNameFragment) Sequence() int {
	return int(f.Ordinal & ordinalMask)
}

// units returns the 13 code units of the fragment in name order.
func (f LongNameFragment) units() []uint16 {
	units := make([]uint16, 0, 13)
	units = append(units, f.Name1[:]...)
	units = append(units, f.Name2[:]...)
	return append(units, f.Name3[:]...)
}
