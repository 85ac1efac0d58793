// Package wad provides access to Doom's data archives, also known as WAD
// files, and to the BSP geometry of the maps stored inside them. The file
// format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html
//
// The archive directory is read once at open time and is immutable
// afterwards. Map geometry is loaded with ChangeMap and published as an
// immutable snapshot, so traversals keep a consistent view while a newer
// map is being loaded.
package wad

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

const (
	headerSize   = 12
	dirEntrySize = 16
)

// WAD represents one open Doom data archive. All lump reads are positioned
// via io.ReaderAt, so they share no file cursor and may run concurrently.
type WAD struct {
	file      io.ReaderAt
	fileSize  int64
	closer    io.Closer
	header    Header
	lumpInfos []LumpInfo
	levels    map[string]int

	mu    sync.Mutex // serializes ChangeMap
	level atomic.Pointer[Level]
}

type binHeader struct {
	Magic        [4]byte
	NumLumps     uint32
	InfoTableOfs uint32
}

// Header is the decoded 12-byte archive header.
type Header struct {
	Magic        string
	NumLumps     int
	InfoTableOfs int
}

type binLumpInfo struct {
	Filepos uint32
	Size    uint32
	Name    String8
}

// LumpInfo is one 16-byte directory entry with the name NUL-trimmed.
type LumpInfo struct {
	Name    string
	Filepos int
	Size    int
}

// WAD eight-character string type. Null-terminated for short strings.
type String8 [8]byte

// String converts String8 to string, stripping trailing NULs.
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(s[0:i])
}

// NewWAD opens an archive file and reads its metadata. The returned WAD
// can be used to read individual lumps and to load maps.
func NewWAD(filename string) (*WAD, error) {
	logger.Println("Start reading WAD")

	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	fi, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	w, err := NewWADReader(file, fi.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	w.closer = file
	return w, nil
}

// NewWADReader reads archive metadata from any positioned reader, typically
// an already open file or an in-memory archive.
func NewWADReader(r io.ReaderAt, size int64) (*WAD, error) {
	w := &WAD{file: r, fileSize: size}
	if err := w.readHeader(); err != nil {
		return nil, err
	}
	if err := w.readInfoTables(); err != nil {
		return nil, err
	}
	return w, nil
}

// Close releases the underlying file when the WAD was opened from a path.
func (w *WAD) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

func (w *WAD) readHeader() error {
	var bin binHeader
	sr := io.NewSectionReader(w.file, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &bin); err != nil {
		return errors.Wrap(err, "reading header")
	}
	magic := string(bin.Magic[:])
	if magic != "IWAD" && magic != "PWAD" {
		return errors.Wrapf(ErrBadMagic, "%q", magic)
	}
	w.header = Header{magic, int(bin.NumLumps), int(bin.InfoTableOfs)}
	return nil
}

func (w *WAD) readInfoTables() error {
	h := &w.header

	// Bound the directory against the file before allocating, so a hostile
	// lump count is rejected instead of attempted.
	need := int64(h.NumLumps) * dirEntrySize
	if int64(h.InfoTableOfs) > w.fileSize || need > w.fileSize-int64(h.InfoTableOfs) {
		return errors.Wrapf(ErrFormat, "directory of %d lumps at offset %d exceeds file size %d",
			h.NumLumps, h.InfoTableOfs, w.fileSize)
	}

	sr := io.NewSectionReader(w.file, int64(h.InfoTableOfs), need)
	lumpInfos := make([]LumpInfo, h.NumLumps)
	levels := map[string]int{}
	for i := 0; i < h.NumLumps; i++ {
		var bin binLumpInfo
		if err := binary.Read(sr, binary.LittleEndian, &bin); err != nil {
			return errors.Wrapf(err, "reading directory entry %d", i)
		}
		info := LumpInfo{bin.Name.String(), int(bin.Filepos), int(bin.Size)}
		if info.Name == "THINGS" && i > 0 {
			// The lump before a THINGS lump is a map marker.
			levels[lumpInfos[i-1].Name] = i - 1
		}
		lumpInfos[i] = info
	}
	w.levels = levels
	w.lumpInfos = lumpInfos
	return nil
}

// Header returns the decoded archive header.
func (w *WAD) Header() Header {
	return w.header
}

// Lumps returns the archive directory. The slice is shared and must be
// treated as read-only.
func (w *WAD) Lumps() []LumpInfo {
	return w.lumpInfos
}

// LevelNames returns a sorted slice of map names found in the archive.
func (w *WAD) LevelNames() []string {
	result := make([]string, 0, len(w.levels))
	for name := range w.levels {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Level returns the currently published map geometry. It fails with
// ErrNoMap before the first successful ChangeMap. The returned snapshot
// stays valid and immutable even after a later ChangeMap.
func (w *WAD) Level() (*Level, error) {
	if l := w.level.Load(); l != nil {
		return l, nil
	}
	return nil, ErrNoMap
}
