package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"
)

const (
	cfbSector     = 512
	cfbMinStream  = 4096
	cfbFreeSect   = 0xFFFFFFFF
	cfbEndOfChain = 0xFFFFFFFE
	cfbFatSect    = 0xFFFFFFFD
	cfbNoStream   = 0xFFFFFFFF
)

// CompoundFile builds a version 3 compound file (OLE2) holding the given
// top-level streams, in order. Streams are padded to the mini stream cutoff
// so every stream lives in regular sectors.
func CompoundFile(streams []Entry) []byte {
	dirEntries := len(streams) + 1
	dirSectors := (dirEntries + 3) / 4

	// sector 0: FAT, then directory, then stream data
	fat := make([]uint32, cfbSector/4)
	for i := range fat {
		fat[i] = cfbFreeSect
	}
	fat[0] = cfbFatSect
	next := uint32(1)
	chain := func(n int) uint32 {
		start := next
		for i := 0; i < n; i++ {
			if i == n-1 {
				fat[next] = cfbEndOfChain
			} else {
				fat[next] = next + 1
			}
			next++
		}
		return start
	}
	dirStart := chain(dirSectors)

	data := make([][]byte, len(streams))
	starts := make([]uint32, len(streams))
	for i, s := range streams {
		b := []byte(s.Data)
		if len(b) < cfbMinStream {
			b = append(b, make([]byte, cfbMinStream-len(b))...)
		}
		if rem := len(b) % cfbSector; rem != 0 {
			b = append(b, make([]byte, cfbSector-rem)...)
		}
		data[i] = b
		starts[i] = chain(len(b) / cfbSector)
	}

	header := make([]byte, cfbSector)
	binary.LittleEndian.PutUint64(header[0:], 0xE11AB1A1E011CFD0)
	binary.LittleEndian.PutUint16(header[24:], 0x003E)
	binary.LittleEndian.PutUint16(header[26:], 3)
	binary.LittleEndian.PutUint16(header[28:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[30:], 9)
	binary.LittleEndian.PutUint16(header[32:], 6)
	binary.LittleEndian.PutUint32(header[44:], 1)
	binary.LittleEndian.PutUint32(header[48:], dirStart)
	binary.LittleEndian.PutUint32(header[56:], cfbMinStream)
	binary.LittleEndian.PutUint32(header[60:], cfbEndOfChain)
	binary.LittleEndian.PutUint32(header[68:], cfbEndOfChain)
	binary.LittleEndian.PutUint32(header[76:], 0)
	for off := 80; off < cfbSector; off += 4 {
		binary.LittleEndian.PutUint32(header[off:], cfbFreeSect)
	}

	out := append([]byte(nil), header...)
	fatSector := make([]byte, cfbSector)
	for i, v := range fat {
		binary.LittleEndian.PutUint32(fatSector[i*4:], v)
	}
	out = append(out, fatSector...)

	dir := make([]byte, dirSectors*cfbSector)
	root := uint32(cfbNoStream)
	if len(streams) > 0 {
		root = 1
	}
	writeDirEntry(dir[0:], "Root Entry", 5, cfbNoStream, root, cfbEndOfChain, 0)
	for i, s := range streams {
		right := uint32(cfbNoStream)
		if i < len(streams)-1 {
			right = uint32(i + 2)
		}
		writeDirEntry(dir[(i+1)*128:], s.Name, 2, right, cfbNoStream, starts[i], uint32(len(data[i])))
	}
	for i := dirEntries; i < dirSectors*4; i++ {
		e := dir[i*128:]
		binary.LittleEndian.PutUint32(e[68:], cfbNoStream)
		binary.LittleEndian.PutUint32(e[72:], cfbNoStream)
		binary.LittleEndian.PutUint32(e[76:], cfbNoStream)
	}
	out = append(out, dir...)

	for _, b := range data {
		out = append(out, b...)
	}
	return out
}

func writeDirEntry(b []byte, name string, objectType byte, right, child, start, size uint32) {
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	binary.LittleEndian.PutUint16(b[64:], uint16((len(units)+1)*2))
	b[66] = objectType
	b[67] = 1 // black
	binary.LittleEndian.PutUint32(b[68:], cfbNoStream)
	binary.LittleEndian.PutUint32(b[72:], right)
	binary.LittleEndian.PutUint32(b[76:], child)
	binary.LittleEndian.PutUint32(b[116:], start)
	binary.LittleEndian.PutUint32(b[120:], size)
}

// WriteCompoundFile writes CompoundFile(streams) to a temp file.
func WriteCompoundFile(t testing.TB, name string, streams []Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, CompoundFile(streams), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
