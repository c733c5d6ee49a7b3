package fatinspect

import (
	"testing"
	"time"

	"github.com/aligator/fatinspect/fattest"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord_Kind(t *testing.T) {
	name := fattest.ShortName("FILE.TXT")
	deletedLongName := fattest.LongNameFragment(1, true, 0, [13]uint16{})
	deletedLongName[0] = 0xE5

	tests := []struct {
		name   string
		record [fattest.RecordSize]byte
		want   RecordKind
	}{
		{name: "short", record: fattest.ShortRecord(name, fattest.AttrArchive, 3, 10, time.Time{}), want: RecordShort},
		{name: "directory", record: fattest.ShortRecord(name, fattest.AttrDirectory, 3, 0, time.Time{}), want: RecordShort},
		{name: "volume label", record: fattest.ShortRecord(name, fattest.AttrVolumeID, 0, 0, time.Time{}), want: RecordShort},
		{name: "long name", record: fattest.LongNameFragment(1, true, 0, [13]uint16{}), want: RecordLongName},
		{name: "long name with archive bit", record: func() [fattest.RecordSize]byte {
			r := fattest.LongNameFragment(1, true, 0, [13]uint16{})
			r[11] |= fattest.AttrArchive
			return r
		}(), want: RecordShort},
		{name: "deleted", record: func() [fattest.RecordSize]byte {
			r := fattest.ShortRecord(name, fattest.AttrArchive, 3, 10, time.Time{})
			r[0] = 0xE5
			return r
		}(), want: RecordDeleted},
		{name: "deleted long name", record: deletedLongName, want: RecordDeleted},
		{name: "free", record: [fattest.RecordSize]byte{}, want: RecordFree},
		{name: "0x05 is a name", record: func() [fattest.RecordSize]byte {
			r := fattest.ShortRecord(name, fattest.AttrArchive, 3, 10, time.Time{})
			r[0] = 0x05
			return r
		}(), want: RecordShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRecord(tt.record[:])
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestDecodeRecord_Short(t *testing.T) {
	modTime := time.Date(2021, 12, 24, 18, 45, 30, 0, time.UTC)
	raw := fattest.ShortRecord(fattest.ShortName("DATA.BIN"), fattest.AttrArchive|fattest.AttrReadOnly, 0x00123456, 4321, modTime)

	got, err := DecodeRecord(raw[:])
	require.NoError(t, err)
	require.Equal(t, RecordShort, got.Kind)

	e := got.Short
	require.Equal(t, "DATA.BIN", ShortName(e))
	require.Equal(t, AttrArchive|AttrReadOnly, e.Attribute)
	require.Equal(t, uint16(0x0012), e.FirstClusterHI)
	require.Equal(t, uint16(0x3456), e.FirstClusterLO)
	require.Equal(t, ClusterID(0x00123456), e.Cluster())
	require.Equal(t, uint32(4321), e.FileSize)
	require.False(t, e.IsDir())
	require.False(t, e.IsVolumeLabel())
	require.False(t, e.IsDotEntry())
	require.Equal(t, modTime, timestamp(e.WriteDate, e.WriteTime))
	require.Equal(t, modTime, timestamp(e.CreateDate, e.CreateTime))
}

func TestDecodeRecord_LongName(t *testing.T) {
	units := [13]uint16{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm'}
	raw := fattest.LongNameFragment(3, true, 0x42, units)

	got, err := DecodeRecord(raw[:])
	require.NoError(t, err)
	require.Equal(t, RecordLongName, got.Kind)

	f := got.Long
	require.Equal(t, byte(0x43), f.Ordinal)
	require.True(t, f.IsLast())
	require.Equal(t, 3, f.Sequence())
	require.Equal(t, byte(0x42), f.Checksum)
	require.Equal(t, AttrLongName, f.Attribute)
	require.Equal(t, [5]uint16{'a', 'b', 'c', 'd', 'e'}, f.Name1)
	require.Equal(t, [6]uint16{'f', 'g', 'h', 'i', 'j', 'k'}, f.Name2)
	require.Equal(t, [2]uint16{'l', 'm'}, f.Name3)
	require.Equal(t, units[:], f.units())
}

func TestDecodeRecord_WrongSize(t *testing.T) {
	_, err := DecodeRecord(make([]byte, 31))
	require.ErrorIs(t, err, ErrMalformedEncoding)
}

func TestShortEntry_Flags(t *testing.T) {
	tests := []struct {
		name      string
		entry     ShortEntry
		wantDir   bool
		wantLabel bool
		wantDot   bool
	}{
		{name: "file", entry: ShortEntry{Name: fattest.ShortName("A.TXT"), Attribute: AttrArchive}},
		{name: "directory", entry: ShortEntry{Name: fattest.ShortName("DIR"), Attribute: AttrDirectory}, wantDir: true},
		{name: "label", entry: ShortEntry{Name: fattest.ShortName("LABEL"), Attribute: AttrVolumeID | AttrArchive}, wantLabel: true},
		{name: "dot", entry: ShortEntry{Name: fattest.ShortName("."), Attribute: AttrDirectory}, wantDir: true, wantDot: true},
		{name: "dotdot", entry: ShortEntry{Name: fattest.ShortName(".."), Attribute: AttrDirectory}, wantDir: true, wantDot: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantDir, tt.entry.IsDir())
			require.Equal(t, tt.wantLabel, tt.entry.IsVolumeLabel())
			require.Equal(t, tt.wantDot, tt.entry.IsDotEntry())
		})
	}
}

func TestRecordKind_String(t *testing.T) {
	require.Equal(t, "short", RecordShort.String())
	require.Equal(t, "long name", RecordLongName.String())
	require.Equal(t, "deleted", RecordDeleted.String())
	require.Equal(t, "free", RecordFree.String())
	require.Equal(t, "RecordKind(9)", RecordKind(9).String())
}
