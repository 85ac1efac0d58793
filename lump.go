package wad

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"
)

// ReadLump returns the raw bytes of the first lump with the given name, or
// os.ErrNotExist when the directory has no such lump.
func (w *WAD) ReadLump(name string) ([]byte, error) {
	for i, info := range w.lumpInfos {
		if info.Name == name {
			return w.readLumpBytes(i)
		}
	}
	return nil, errors.Wrapf(os.ErrNotExist, "lump %q", name)
}

// readLumpBytes reads lump i in full. Short reads are errors, never
// zero-padded.
func (w *WAD) readLumpBytes(i int) ([]byte, error) {
	if i < 0 || i >= len(w.lumpInfos) {
		return nil, errors.Wrapf(ErrFormat, "lump index %d out of range [0,%d)", i, len(w.lumpInfos))
	}
	info := w.lumpInfos[i]
	if int64(info.Filepos) > w.fileSize || int64(info.Size) > w.fileSize-int64(info.Filepos) {
		return nil, errors.Wrapf(ErrFormat, "lump %q: %d bytes at offset %d exceeds file size %d",
			info.Name, info.Size, info.Filepos, w.fileSize)
	}
	raw := make([]byte, info.Size)
	sr := io.NewSectionReader(w.file, int64(info.Filepos), int64(info.Size))
	if _, err := io.ReadFull(sr, raw); err != nil {
		return nil, errors.Wrapf(err, "reading lump %q", info.Name)
	}
	return raw, nil
}

// readLumpRecords decodes lump i as a packed array of fixed-size records.
// A lump size that is not a whole multiple of the record size is corrupt
// data and fails; trailing bytes are never silently dropped.
func readLumpRecords[T any](w *WAD, i int) ([]T, error) {
	raw, err := w.readLumpBytes(i)
	if err != nil {
		return nil, err
	}
	var zero T
	recSize := binary.Size(zero)
	if len(raw)%recSize != 0 {
		return nil, errors.Wrapf(ErrFormat, "lump %q: size %d is not a multiple of record size %d",
			w.lumpInfos[i].Name, len(raw), recSize)
	}
	records := make([]T, len(raw)/recSize)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, records); err != nil {
		return nil, errors.Wrapf(err, "decoding lump %q", w.lumpInfos[i].Name)
	}
	return records, nil
}
