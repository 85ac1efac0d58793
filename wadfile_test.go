package wad

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// lumpSpec is one named lump used to assemble a synthetic archive.
type lumpSpec struct {
	name string
	data []byte
}

// buildWAD assembles a complete archive image: header, lump bodies in
// order, then the directory.
func buildWAD(magic string, lumps []lumpSpec) []byte {
	offset := headerSize
	offsets := make([]int, len(lumps))
	for i, l := range lumps {
		offsets[i] = offset
		offset += len(l.data)
	}

	var out bytes.Buffer
	out.WriteString(magic)
	binary.Write(&out, binary.LittleEndian, uint32(len(lumps)))
	binary.Write(&out, binary.LittleEndian, uint32(offset))
	for _, l := range lumps {
		out.Write(l.data)
	}
	for i, l := range lumps {
		binary.Write(&out, binary.LittleEndian, uint32(offsets[i]))
		binary.Write(&out, binary.LittleEndian, uint32(len(l.data)))
		var name String8
		copy(name[:], l.name)
		out.Write(name[:])
	}
	return out.Bytes()
}

func openWAD(t *testing.T, image []byte) *WAD {
	t.Helper()
	w, err := NewWADReader(bytes.NewReader(image), int64(len(image)))
	require.NoError(t, err)
	return w
}

// records encodes a slice of fixed-size records little-endian.
func records(t *testing.T, v any) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	return buf.Bytes()
}

func texName(s string) String8 {
	var n String8
	copy(n[:], s)
	return n
}

// testMapLumps builds a tiny consistent map: a 128x128 square room with
// one sector, split by a vertical partition at x=64 into two subsectors of
// two segs each.
func testMapLumps(t *testing.T, name string) []lumpSpec {
	t.Helper()

	things := []binThing{
		{X: 32, Y: 64, Angle: 90, Type: 1, Options: 7}, // player 1 start
	}
	lines := []binLine{
		{VertexStart: 0, VertexEnd: 1, Flags: 1, SideR: 0, SideL: -1},
		{VertexStart: 1, VertexEnd: 2, Flags: 1, SideR: 0, SideL: -1},
		{VertexStart: 2, VertexEnd: 3, Flags: 1, SideR: 0, SideL: -1},
		{VertexStart: 3, VertexEnd: 0, Flags: 1, SideR: 0, SideL: -1},
	}
	sides := []binSide{
		{MiddleTexture: texName("STARTAN3"), SectorNum: 0},
	}
	vertexes := []binVertex{
		{X: 0, Y: 0}, {X: 128, Y: 0}, {X: 128, Y: 128}, {X: 0, Y: 128},
	}
	segs := []binLineSegment{
		{V1: 0, V2: 1, LineNum: 0},
		{V1: 1, V2: 2, LineNum: 1},
		{V1: 2, V2: 3, LineNum: 2},
		{V1: 3, V2: 0, LineNum: 3},
	}
	subSectors := []binSubSector{
		{NumSegments: 2, StartLineSegment: 0},
		{NumSegments: 2, StartLineSegment: 2},
	}
	nodes := []binNode{
		{
			X: 64, Y: 0, DX: 0, DY: 64,
			BBoxR:  binBBox{Top: 128, Bottom: 0, Left: 64, Right: 128},
			BBoxL:  binBBox{Top: 128, Bottom: 0, Left: 0, Right: 64},
			ChildR: 0x8000, ChildL: 0x8001,
		},
	}
	sectors := []binSector{
		{
			FloorHeight: 0, CeilingHeight: 128,
			FloorTexture: texName("FLOOR4_8"), CeilingTexture: texName("CEIL3_5"),
			LightLevel: 160,
		},
	}
	// One sector: a single reject bit, clear.
	reject := []byte{0}
	// 1x1 blockmap at the origin with one empty block list.
	blockmap := records(t, []uint16{0, 0, 1, 1, 5, 0, 0xffff})

	return []lumpSpec{
		{name, nil},
		{"THINGS", records(t, things)},
		{"LINEDEFS", records(t, lines)},
		{"SIDEDEFS", records(t, sides)},
		{"VERTEXES", records(t, vertexes)},
		{"SEGS", records(t, segs)},
		{"SSECTORS", records(t, subSectors)},
		{"NODES", records(t, nodes)},
		{"SECTORS", records(t, sectors)},
		{"REJECT", reject},
		{"BLOCKMAP", blockmap},
	}
}
