package fatinspect

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aligator/fatinspect/checkpoint"
	"github.com/sirupsen/logrus"
)

// ClusterID identifies a cluster. As FAT entry it holds the next cluster of a chain
// or one of the special values.
// Only the lower 28 bits are used by FAT32.
type ClusterID uint32

const (
	clusterMask ClusterID = 0x0FFFFFFF

	// ClusterBad marks a cluster which must not be used.
	ClusterBad ClusterID = 0x0FFFFFF7
	// ClusterEOC is the usual end of chain value. Everything >= 0x0FFFFFF8 ends a chain.
	ClusterEOC ClusterID = 0x0FFFFFFF

	clusterEOCMin    ClusterID = 0x0FFFFFF8
	firstDataCluster ClusterID = 2
)

// Value returns the 28 bit value of the entry.
func (c ClusterID) Value() uint32 {
	return uint32(c & clusterMask)
}

func (c ClusterID) IsFree() bool {
	return c.Value() == 0
}

// IsReserved reports whether c is the reserved value 1.
func (c ClusterID) IsReserved() bool {
	return c.Value() == 1
}

// IsNextCluster reports whether c points to a usable data cluster.
func (c ClusterID) IsNextCluster() bool {
	return c.Value() >= uint32(firstDataCluster) && c.Value() < uint32(ClusterBad)
}

func (c ClusterID) IsBad() bool {
	return c.Value() == uint32(ClusterBad)
}

// IsEOC reports whether c marks the end of a chain.
func (c ClusterID) IsEOC() bool {
	return c.Value() >= uint32(clusterEOCMin)
}

// FAT provides access to the first file allocation table of a volume.
type FAT struct {
	storage storage
	layout  VolumeLayout
	log     logrus.FieldLogger
}

func newFAT(s storage, layout VolumeLayout, log logrus.FieldLogger) *FAT {
	return &FAT{storage: s, layout: layout, log: log}
}

func (f *FAT) entry(index uint32) (uint32, error) {
	if index >= f.layout.FATEntryCount() {
		return 0, checkpoint.From(fmt.Errorf("%w: cluster %d is outside of the FAT (%d entries)", ErrMalformedEncoding, index, f.layout.FATEntryCount()))
	}

	raw, err := f.storage.readAt(f.layout.FATRegionStart()+int64(index)*4, 4)
	if err != nil {
		return 0, checkpoint.From(err)
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// VerifySignature checks the first two entries of the FAT.
// The low byte of entry 0 has to match the media byte of the boot sector
// and entry 1 has to be an end of chain mark (0x0FFFFFFF).
func (f *FAT) VerifySignature() error {
	raw, err := f.storage.readAt(f.layout.FATRegionStart(), 8)
	if err != nil {
		return checkpoint.From(err)
	}

	fat0 := binary.LittleEndian.Uint32(raw[0:4])
	fat1 := ClusterID(binary.LittleEndian.Uint32(raw[4:8]))

	if uint8(fat0&0xFF) != f.layout.Media {
		return checkpoint.From(fmt.Errorf("%w: media byte 0x%02X in FAT does not match 0x%02X from the boot sector", ErrInvalidSignature, fat0&0xFF, f.layout.Media))
	}
	if fat1.Value() != uint32(ClusterEOC) {
		return checkpoint.From(fmt.Errorf("%w: FAT entry 1 is 0x%08X", ErrInvalidSignature, uint32(fat1)))
	}

	return nil
}

// Next returns the entry of the given cluster, which is the next cluster of its chain
// or a special value. Use ClusterID.IsEOC to detect the end of a chain.
func (f *FAT) Next(cluster ClusterID) (ClusterID, error) {
	value, err := f.entry(cluster.Value())
	if err != nil {
		return 0, err
	}
	return ClusterID(value) & clusterMask, nil
}

// CountFree counts the free clusters by scanning the whole FAT.
func (f *FAT) CountFree() (uint32, error) {
	count := f.layout.FATEntryCount()

	// Do not count clusters which would lie behind the end of the volume.
	dataBytes := int64(f.layout.TotalBytes()) - f.layout.DataRegionStart()
	if dataBytes > 0 {
		clusters := uint32(dataBytes/int64(f.layout.BytesPerCluster())) + uint32(firstDataCluster)
		if clusters < count {
			count = clusters
		}
	}

	const chunkEntries = 1024
	var free uint32
	for start := uint32(firstDataCluster); start < count; start += chunkEntries {
		n := count - start
		if n > chunkEntries {
			n = chunkEntries
		}

		raw, err := f.storage.readAt(f.layout.FATRegionStart()+int64(start)*4, int(n)*4)
		if err != nil {
			return 0, checkpoint.From(err)
		}
		for i := uint32(0); i < n; i++ {
			if ClusterID(binary.LittleEndian.Uint32(raw[i*4:])).IsFree() {
				free++
			}
		}
	}

	return free, nil
}

// errStopChain can be returned by a chain callback to end the iteration without an error.
var errStopChain = errors.New("stop following the chain")

// followChain calls fn for each cluster of the chain starting at start.
// It stops at the end of chain mark and fails as soon as a cluster repeats or
// the chain contains an invalid link. The length is also capped by the size of the FAT.
func (f *FAT) followChain(start ClusterID, fn func(cluster ClusterID) error) error {
	limit := f.layout.FATEntryCount()
	seen := make(map[ClusterID]struct{})
	cluster := start

	for {
		if uint32(len(seen)) >= limit {
			return checkpoint.From(fmt.Errorf("%w: cluster chain starting at %d does not end", ErrMalformedEncoding, start))
		}
		if !cluster.IsNextCluster() {
			return checkpoint.From(fmt.Errorf("%w: invalid cluster 0x%08X in chain starting at %d", ErrMalformedEncoding, uint32(cluster), start))
		}
		if _, ok := seen[cluster]; ok {
			return checkpoint.From(fmt.Errorf("%w: cluster chain starting at %d loops back to cluster %d", ErrMalformedEncoding, start, cluster))
		}
		seen[cluster] = struct{}{}

		if err := fn(cluster); err != nil {
			if err == errStopChain {
				return nil
			}
			return err
		}

		next, err := f.Next(cluster)
		if err != nil {
			return err
		}

		if next.IsEOC() {
			return nil
		}

		f.log.WithFields(logrus.Fields{"cluster": cluster, "next": next}).Debug("following cluster chain")
		cluster = next
	}
}
