package wad

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	lumps := make([]lumpSpec, 12)
	lumps[0] = lumpSpec{"DATA", make([]byte, 64)}
	for i := 1; i < 12; i++ {
		lumps[i] = lumpSpec{fmt.Sprintf("L%02d", i), nil}
	}
	w := openWAD(t, buildWAD("PWAD", lumps))

	h := w.Header()
	assert.Equal(t, "PWAD", h.Magic)
	assert.Equal(t, 12, h.NumLumps)
	assert.Equal(t, 76, h.InfoTableOfs)
}

func TestBadMagic(t *testing.T) {
	image := buildWAD("WAD2", nil)
	_, err := NewWADReader(bytes.NewReader(image), int64(len(image)))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestTruncatedHeader(t *testing.T) {
	image := []byte("IWAD\x01")
	_, err := NewWADReader(bytes.NewReader(image), int64(len(image)))
	require.Error(t, err)
}

func TestHostileLumpCount(t *testing.T) {
	var image bytes.Buffer
	image.WriteString("IWAD")
	binary.Write(&image, binary.LittleEndian, uint32(1<<28))
	binary.Write(&image, binary.LittleEndian, uint32(headerSize))

	_, err := NewWADReader(bytes.NewReader(image.Bytes()), int64(image.Len()))
	require.ErrorIs(t, err, ErrFormat)
}

func TestDirectoryOffsetPastEOF(t *testing.T) {
	var image bytes.Buffer
	image.WriteString("IWAD")
	binary.Write(&image, binary.LittleEndian, uint32(1))
	binary.Write(&image, binary.LittleEndian, uint32(4096))

	_, err := NewWADReader(bytes.NewReader(image.Bytes()), int64(image.Len()))
	require.ErrorIs(t, err, ErrFormat)
}

func TestDirectoryEntries(t *testing.T) {
	lumps := []lumpSpec{
		{"EIGHTCHR", []byte("abcdef")}, // name fills all 8 bytes, no NUL
		{"A", []byte{1, 2}},
		{"EMPTY", nil},
	}
	w := openWAD(t, buildWAD("IWAD", lumps))

	infos := w.Lumps()
	require.Len(t, infos, len(lumps))
	assert.Equal(t, "EIGHTCHR", infos[0].Name)
	assert.Equal(t, "A", infos[1].Name)
	assert.Equal(t, "EMPTY", infos[2].Name)

	assert.Equal(t, headerSize, infos[0].Filepos)
	assert.Equal(t, 6, infos[0].Size)
	assert.Equal(t, headerSize+6, infos[1].Filepos)
	assert.Equal(t, 2, infos[1].Size)
	assert.Equal(t, 0, infos[2].Size)
}

func TestLevelNames(t *testing.T) {
	lumps := append(testMapLumps(t, "MAP01"), testMapLumps(t, "E1M1")...)
	w := openWAD(t, buildWAD("IWAD", lumps))

	assert.Equal(t, []string{"E1M1", "MAP01"}, w.LevelNames())
}

func TestLevelBeforeChangeMap(t *testing.T) {
	w := openWAD(t, buildWAD("IWAD", testMapLumps(t, "MAP01")))

	_, err := w.Level()
	require.ErrorIs(t, err, ErrNoMap)
}
