package fattest

// Dir is a directory of an Image. New records are appended at the end,
// the cluster chain grows as needed.
type Dir struct {
	img     *Image
	chain   []uint32
	records int
}

// Cluster returns the first cluster of the directory.
func (d *Dir) Cluster() uint32 {
	return d.chain[0]
}

// Chain returns all clusters of the directory.
func (d *Dir) Chain() []uint32 {
	return append([]uint32(nil), d.chain...)
}

// AddRecord appends a raw 32 byte record.
func (d *Dir) AddRecord(record [RecordSize]byte) {
	perCluster := d.img.ClusterSize() / RecordSize
	if d.records == perCluster*len(d.chain) {
		next := d.img.allocate(1)[0]
		d.img.SetFAT(d.chain[len(d.chain)-1], next)
		d.chain = append(d.chain, next)
	}

	cluster := d.chain[d.records/perCluster]
	offset := d.img.ClusterOffset(cluster) + int64(d.records%perCluster)*RecordSize
	copy(d.img.data[offset:], record[:])
	d.records++
}

// AddEntry appends a short entry pointing to an arbitrary cluster.
func (d *Dir) AddEntry(name string, attr byte, cluster uint32, size uint32) {
	d.AddRecord(ShortRecord(ShortName(name), attr, cluster, size, d.img.opts.ModTime))
}

// AddDeleted appends a record of a deleted entry.
func (d *Dir) AddDeleted(name string) {
	record := ShortRecord(ShortName(name), AttrArchive, 0, 0, d.img.opts.ModTime)
	record[0] = 0xE5
	d.AddRecord(record)
}

// AddVolumeLabel appends a volume label entry.
func (d *Dir) AddVolumeLabel(label string) {
	var name [11]byte
	copy(name[:], padded(label, 11))
	d.AddRecord(ShortRecord(name, AttrVolumeID, 0, 0, d.img.opts.ModTime))
}

// Mkdir adds a subdirectory with the short name name.
func (d *Dir) Mkdir(name string) *Dir {
	return d.mkdir("", name)
}

// MkdirLong adds a subdirectory with a long name and the given short name.
func (d *Dir) MkdirLong(long, short string) *Dir {
	return d.mkdir(long, short)
}

func (d *Dir) mkdir(long, short string) *Dir {
	cluster := d.img.allocate(1)[0]
	d.addNamed(long, short, AttrDirectory, cluster, 0)

	sub := &Dir{img: d.img, chain: []uint32{cluster}}

	// The parent link of a directory in the root points to cluster 0.
	parent := d.Cluster()
	if d == d.img.root {
		parent = 0
	}
	sub.AddEntry(".", AttrDirectory, cluster, 0)
	sub.AddEntry("..", AttrDirectory, parent, 0)
	return sub
}

// AddFile adds a file with the short name name and returns its first cluster.
// Empty files get cluster 0.
func (d *Dir) AddFile(name string, data []byte) uint32 {
	return d.addFile("", name, data)
}

// AddLongFile adds a file with a long name and the given short name.
func (d *Dir) AddLongFile(long, short string, data []byte) uint32 {
	return d.addFile(long, short, data)
}

func (d *Dir) addFile(long, short string, data []byte) uint32 {
	size := d.img.ClusterSize()
	chain := d.img.allocate((len(data) + size - 1) / size)

	for i, cluster := range chain {
		end := (i + 1) * size
		if end > len(data) {
			end = len(data)
		}
		copy(d.img.data[d.img.ClusterOffset(cluster):], data[i*size:end])
	}

	var first uint32
	if len(chain) > 0 {
		first = chain[0]
	}

	d.addNamed(long, short, AttrArchive, first, uint32(len(data)))
	return first
}

func (d *Dir) addNamed(long, short string, attr byte, cluster uint32, size uint32) {
	name := ShortName(short)
	if long != "" {
		for _, record := range LongNameRecords(long, name) {
			d.AddRecord(record)
		}
	}
	d.AddRecord(ShortRecord(name, attr, cluster, size, d.img.opts.ModTime))
}
