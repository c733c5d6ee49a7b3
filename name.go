package fatinspect

import (
	"fmt"
	"strings"

	"github.com/aligator/fatinspect/checkpoint"
)

// maxFragments is the number of fragments needed for the longest possible name (255 characters).
const maxFragments = 20

// ShortName formats the 8.3 name of an entry.
// Name and extension are trimmed separately and joined by a period if the extension is not empty.
func ShortName(e ShortEntry) string {
	raw := e.Name
	if raw[0] == recordKanjiE5 {
		raw[0] = recordDeleted
	}

	name := strings.TrimRight(string(raw[:8]), " ")
	ext := strings.TrimRight(string(raw[8:11]), " ")

	if ext == "" {
		return name
	}
	return name + "." + ext
}

// comparableName is the raw 11 byte short name cut at its first space.
// "MY DIR     " becomes "MY", "NOTES   TXT" becomes "NOTES".
func comparableName(e ShortEntry) string {
	raw := string(e.Name[:])
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		return raw[:i]
	}
	return raw
}

// LongName reconstructs a long name from its fragments.
// The fragments have to be ordered like they are found by scanning backwards
// from the short entry, which means the fragment with sequence 1 comes first.
// Fragments are consumed until the one marked as last.
//
// Each UTF-16 code unit is narrowed to a single byte. Only ASCII names are supported,
// any other unit except the 0xFFFF padding results in ErrUnsupportedName.
// The terminating 0x0000 and the padding are kept, use trimLongName to remove them.
func LongName(fragments []LongNameFragment) (string, error) {
	var b strings.Builder

	for i, fragment := range fragments {
		if i >= maxFragments {
			break
		}

		for _, unit := range fragment.units() {
			if unit > 0x7F && unit != 0xFFFF {
				return "", checkpoint.From(fmt.Errorf("%w: non-ASCII code unit 0x%04X", ErrUnsupportedName, unit))
			}
			b.WriteByte(byte(unit))
		}

		if fragment.IsLast() {
			return b.String(), nil
		}
	}

	return "", checkpoint.From(fmt.Errorf("%w: long name without last fragment after %d fragments", ErrMalformedEncoding, len(fragments)))
}

// trimLongName cuts a raw long name at the terminating NUL and removes the padding.
func trimLongName(raw string) string {
	if i := strings.IndexByte(raw, 0x00); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, "\xff")
}

// Checksum calculates the checksum of a short name which every long name fragment of that entry carries.
func Checksum(name [11]byte) byte {
	var sum byte
	for _, c := range name {
		sum = (sum>>1 | sum<<7) + c
	}
	return sum
}
