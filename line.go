package wad

type binLine struct {
	VertexStart, VertexEnd int16
	Flags                  int16
	Type                   int16
	SectorTag              int16
	SideR, SideL           int16
}

// NoSideDef is the sidedef index a one-sided line stores for its missing
// side (all bits set on disk).
const NoSideDef = -1

// Line is a decoded LINEDEFS record with its flag bits expanded.
type Line struct {
	V1Num                  int
	V2Num                  int
	BlockPlayerAndMonsters bool
	BlockMonsters          bool
	TwoSided               bool
	UpperTextureUnpegged   bool
	LowerTextureUnpegged   bool
	Secret                 bool
	BlocksSound            bool
	NeverMap               bool
	AlwaysMap              bool
	Type                   int
	SectorTagNum           int
	SideRNum, SideLNum     int

	// References, wired while loading a map.
	V1, V2                  Vertex
	DX, DY                  float64 // Precalculated V2-V1 for side checking
	SideR, SideL            *Side
	FrontSector, BackSector *Sector
	SlopeType               SlopeType
}

// SlopeType classifies a line's direction to aid move clipping.
type SlopeType int

const (
	SlopeTypeHorizontal SlopeType = iota
	SlopeTypeVertical
	SlopeTypePositive
	SlopeTypeNegative
)

func newLine(bin binLine) Line {
	l := Line{
		V1Num:                  int(bin.VertexStart),
		V2Num:                  int(bin.VertexEnd),
		BlockPlayerAndMonsters: bin.Flags&0x1 != 0,
		BlockMonsters:          bin.Flags&0x2 != 0,
		TwoSided:               bin.Flags&0x4 != 0,
		UpperTextureUnpegged:   bin.Flags&0x8 != 0,
		LowerTextureUnpegged:   bin.Flags&0x10 != 0,
		Secret:                 bin.Flags&0x20 != 0,
		BlocksSound:            bin.Flags&0x40 != 0,
		NeverMap:               bin.Flags&0x80 != 0,
		AlwaysMap:              bin.Flags&0x100 != 0,
		Type:                   int(bin.Type),
		SectorTagNum:           int(bin.SectorTag),
		SideRNum:               int(bin.SideR),
		SideLNum:               int(bin.SideL),
	}
	return l
}
