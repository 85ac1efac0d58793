package wad

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Offsets of a map's lumps relative to its zero-size marker lump. The
// block order is fixed by the format.
const (
	lumpThings = 1 + iota
	lumpLineDefs
	lumpSideDefs
	lumpVertexes
	lumpSegs
	lumpSSectors
	lumpNodes
	lumpSectors
	lumpReject
	lumpBlockMap
)

// mapLumpNames lists the canonical lump names at marker+1..+8.
var mapLumpNames = [...]string{
	"THINGS", "LINEDEFS", "SIDEDEFS", "VERTEXES",
	"SEGS", "SSECTORS", "NODES", "SECTORS",
}

type binThing struct {
	X       int16
	Y       int16
	Angle   int16
	Type    int16
	Options int16
}

// Thing is a decoded THINGS record with its spawn flags expanded.
type Thing struct {
	X, Y            int
	Angle           float64 // Radians
	Type            int
	Skill1and2      bool
	Skill3          bool
	Skill4and5      bool
	Ambush          bool
	MultiplayerOnly bool
}

type binSide struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  String8
	LowerTexture  String8
	MiddleTexture String8
	SectorNum     int16
}

// Side is a decoded SIDEDEFS record. An empty texture name means the side
// has no texture on that part.
type Side struct {
	XOffset           float64
	YOffset           float64
	UpperTextureName  string
	LowerTextureName  string
	MiddleTextureName string
	SectorNum         int

	Sector *Sector
}

type binVertex struct {
	X, Y int16
}

// Vertex is one map coordinate.
type Vertex struct {
	X, Y float64
}

type binLineSegment struct {
	V1        int16
	V2        int16
	Angle     int16 // Full circle is -32768 to 32767.
	LineNum   int16
	Direction int16 // 0 - same as linedef, 1 - opposite to linedef
	Offset    int16 // Distance along line to start of segment
}

// LineSegment is a decoded SEGS record: a directed, possibly partial, copy
// of a line used to bound a subsector.
type LineSegment struct {
	V1Num   int
	V2Num   int
	Angle   float64 // Radians
	LineNum int
	IsSideL bool    // false - same as linedef, true - opposite to linedef
	Offset  float64 // Distance along line to start of segment

	V1, V2      Vertex
	Line        *Line
	Side        *Side
	FrontSector *Sector
	BackSector  *Sector
}

type binSubSector struct {
	NumSegments      int16
	StartLineSegment int16
}

// SubSector is a convex leaf region of the BSP tree, described by a
// contiguous run of line segments.
type SubSector struct {
	NumSegments      int
	StartLineSegment int

	LineSegments []LineSegment
	Sector       *Sector
}

type binBBox struct {
	Top    int16
	Bottom int16
	Left   int16
	Right  int16
}

// BoundBox is an axis-aligned bounding box.
type BoundBox struct {
	Top, Bottom, Left, Right float64
}

type binNode struct {
	X, Y         int16
	DX, DY       int16
	BBoxR, BBoxL binBBox
	ChildR       uint16
	ChildL       uint16
}

// Node is a decoded NODES record. (X,Y)+(DX,DY) define the infinite
// partition line; the right child lies on the front side of it.
type Node struct {
	X, Y           float64
	DX, DY         float64
	BBoxR, BBoxL   BoundBox
	ChildR, ChildL NodeChild
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   String8
	CeilingTexture String8
	LightLevel     int16
	Type           int16
	TagNum         int16
}

// Sector is a decoded SECTORS record.
type Sector struct {
	Index              int
	FloorHeight        float64
	CeilingHeight      float64
	FloorTextureName   string
	CeilingTextureName string
	LightLevel         int
	Type               SectorType
	TagNum             int

	Lines []*Line
}

type SectorType int

const (
	TypeNormal          SectorType = iota
	TypeBlinkRandom                // 1  Light  Blink random
	TypeBlink05                    // 2  Light  Blink 0.5 second
	TypeBlink10                    // 3  Light  Blink 1.0 second
	TypeDamage20Blink05            // 4  Both   20% damage per second; light blink 0.5 second
	TypeDamage10                   // 5  Damage 10% damage per second
	TypeUnused1                    // 6  Unused
	TypeDamage5                    // 7  Damage 5% damage per second
	TypeOscillate                  // 8  Light  Oscillates
	TypeSecret                     // 9  Secret Player entering this sector gets credit for finding a secret
	TypeDoor30                     // 10 Door   30 seconds after level start, ceiling closes like a door
	TypeEnd                        // 11 End    20% damage ps. Level ends when player health drops below 11% & touching floor
	TypeBlink10Sync                // 12 Light  Blink 1.0 second, synchronized
	TypeBlink05Sync                // 13 Light  Blink 0.5 second, synchronized
	TypeDoor300                    // 14 Door   300 seconds after level start, ceiling opens like a door
	TypeUnused2                    // 15 Unused
	TypeDamage20                   // 16 Damage 20% damage per second
	TypeFlickerRandom              // 17 Light  Flickers randomly
)

// Level is one map's decoded geometry. A Level is immutable once published
// by ChangeMap.
type Level struct {
	Name         string
	Things       []Thing
	Lines        []Line
	Sides        []Side
	Vertexes     []Vertex
	LineSegments []LineSegment
	SubSectors   []SubSector
	Nodes        []Node
	Sectors      []Sector

	markerIndex int
}

// ChangeMap loads the named map and publishes it as the current level.
// The found result reports whether a lump with that name exists in the
// directory; when it is false nothing is mutated. A decode failure while
// loading returns the error and leaves the previously published level
// untouched.
func (w *WAD) ChangeMap(name string) (found bool, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	marker := -1
	for i, info := range w.lumpInfos {
		if info.Name == name {
			marker = i
			break
		}
	}
	if marker < 0 {
		return false, nil
	}

	level, err := w.readLevel(name, marker)
	if err != nil {
		return true, err
	}
	w.level.Store(level)
	return true, nil
}

// readLevel decodes the eight geometry lumps following the marker into a
// staged Level and wires its cross references.
func (w *WAD) readLevel(name string, marker int) (*Level, error) {
	logger.Printf("Reading Level %v ...", name)

	if marker+lumpSectors >= len(w.lumpInfos) {
		return nil, errors.Wrapf(ErrFormat, "map %q: directory too short for geometry lumps", name)
	}
	for i, want := range mapLumpNames {
		if got := w.lumpInfos[marker+1+i].Name; got != want {
			return nil, errors.Wrapf(ErrFormat, "map %q: lump %d is %q, want %q", name, i+1, got, want)
		}
	}

	level := &Level{Name: name, markerIndex: marker}
	var err error
	if level.Things, err = readThings(w, marker+lumpThings); err != nil {
		return nil, err
	}
	if level.Lines, err = readLines(w, marker+lumpLineDefs); err != nil {
		return nil, err
	}
	if level.Sides, err = readSides(w, marker+lumpSideDefs); err != nil {
		return nil, err
	}
	if level.Vertexes, err = readVertexes(w, marker+lumpVertexes); err != nil {
		return nil, err
	}
	if level.LineSegments, err = readLineSegments(w, marker+lumpSegs); err != nil {
		return nil, err
	}
	if level.SubSectors, err = readSubSectors(w, marker+lumpSSectors); err != nil {
		return nil, err
	}
	if level.Nodes, err = readNodes(w, marker+lumpNodes); err != nil {
		return nil, err
	}
	if level.Sectors, err = readSectors(w, marker+lumpSectors); err != nil {
		return nil, err
	}
	if err := level.setReferences(); err != nil {
		return nil, errors.Wrapf(err, "map %q", name)
	}
	return level, nil
}

func readThings(w *WAD, index int) ([]Thing, error) {
	bins, err := readLumpRecords[binThing](w, index)
	if err != nil {
		return nil, err
	}
	things := make([]Thing, len(bins))
	for i, t := range bins {
		things[i] = Thing{
			X:               int(t.X),
			Y:               int(t.Y),
			Angle:           degreesToRadians(t.Angle),
			Type:            int(t.Type),
			Skill1and2:      t.Options&1 != 0,
			Skill3:          t.Options&2 != 0,
			Skill4and5:      t.Options&4 != 0,
			Ambush:          t.Options&8 != 0,
			MultiplayerOnly: t.Options&0x10 != 0,
		}
	}
	logger.Printf("Read %v things", len(things))
	return things, nil
}

func readLines(w *WAD, index int) ([]Line, error) {
	bins, err := readLumpRecords[binLine](w, index)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, len(bins))
	for i, l := range bins {
		lines[i] = newLine(l)
	}
	logger.Printf("Read %v lines", len(lines))
	return lines, nil
}

func readSides(w *WAD, index int) ([]Side, error) {
	bins, err := readLumpRecords[binSide](w, index)
	if err != nil {
		return nil, err
	}
	sides := make([]Side, len(bins))
	for i, s := range bins {
		sides[i] = Side{
			XOffset:           float64(s.XOffset),
			YOffset:           float64(s.YOffset),
			UpperTextureName:  s.UpperTexture.String(),
			LowerTextureName:  s.LowerTexture.String(),
			MiddleTextureName: s.MiddleTexture.String(),
			SectorNum:         int(s.SectorNum),
		}
	}
	logger.Printf("Read %v sides", len(sides))
	return sides, nil
}

func readVertexes(w *WAD, index int) ([]Vertex, error) {
	bins, err := readLumpRecords[binVertex](w, index)
	if err != nil {
		return nil, err
	}
	vertexes := make([]Vertex, len(bins))
	for i, v := range bins {
		vertexes[i] = Vertex{X: float64(v.X), Y: float64(v.Y)}
	}
	logger.Printf("Read %v vertexes", len(vertexes))
	return vertexes, nil
}

func readLineSegments(w *WAD, index int) ([]LineSegment, error) {
	bins, err := readLumpRecords[binLineSegment](w, index)
	if err != nil {
		return nil, err
	}
	segments := make([]LineSegment, len(bins))
	for i, s := range bins {
		segments[i] = LineSegment{
			V1Num:   int(s.V1),
			V2Num:   int(s.V2),
			Angle:   bamToRadians(s.Angle),
			LineNum: int(s.LineNum),
			IsSideL: s.Direction == 1,
			Offset:  float64(s.Offset),
		}
	}
	logger.Printf("Read %v line segments", len(segments))
	return segments, nil
}

func readSubSectors(w *WAD, index int) ([]SubSector, error) {
	bins, err := readLumpRecords[binSubSector](w, index)
	if err != nil {
		return nil, err
	}
	subSectors := make([]SubSector, len(bins))
	for i, s := range bins {
		subSectors[i] = SubSector{
			NumSegments:      int(s.NumSegments),
			StartLineSegment: int(s.StartLineSegment),
		}
	}
	logger.Printf("Read %v sub sectors", len(subSectors))
	return subSectors, nil
}

func readNodes(w *WAD, index int) ([]Node, error) {
	bins, err := readLumpRecords[binNode](w, index)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, len(bins))
	for i, n := range bins {
		nodes[i] = Node{
			X:  float64(n.X),
			Y:  float64(n.Y),
			DX: float64(n.DX),
			DY: float64(n.DY),
			BBoxR: BoundBox{
				float64(n.BBoxR.Top),
				float64(n.BBoxR.Bottom),
				float64(n.BBoxR.Left),
				float64(n.BBoxR.Right),
			},
			BBoxL: BoundBox{
				float64(n.BBoxL.Top),
				float64(n.BBoxL.Bottom),
				float64(n.BBoxL.Left),
				float64(n.BBoxL.Right),
			},
			ChildR: NodeChild(n.ChildR),
			ChildL: NodeChild(n.ChildL),
		}
	}
	logger.Printf("Read %v nodes", len(nodes))
	return nodes, nil
}

func readSectors(w *WAD, index int) ([]Sector, error) {
	bins, err := readLumpRecords[binSector](w, index)
	if err != nil {
		return nil, err
	}
	sectors := make([]Sector, len(bins))
	for i, s := range bins {
		sectors[i] = Sector{
			Index:              i,
			FloorHeight:        float64(s.FloorHeight),
			CeilingHeight:      float64(s.CeilingHeight),
			FloorTextureName:   s.FloorTexture.String(),
			CeilingTextureName: s.CeilingTexture.String(),
			LightLevel:         int(s.LightLevel),
			Type:               SectorType(s.Type),
			TagNum:             int(s.TagNum),
		}
	}
	logger.Printf("Read %v sectors", len(sectors))
	return sectors, nil
}

func checkIndex(kind string, i, n int) error {
	if i < 0 || i >= n {
		return errors.Wrapf(ErrFormat, "%s index %d out of range [0,%d)", kind, i, n)
	}
	return nil
}

// setReferences wires cross references between the decoded arrays. Every
// index stored in the file is validated here, so a published Level can be
// indexed without further checks.
func (l *Level) setReferences() error {
	logger.Println("Setting references ...")

	// Sides
	for i := range l.Sides {
		s := &l.Sides[i]
		if err := checkIndex("sector", s.SectorNum, len(l.Sectors)); err != nil {
			return errors.Wrapf(err, "side %d", i)
		}
		s.Sector = &l.Sectors[s.SectorNum]
	}

	// Lines - dependent on Sides
	for i := range l.Lines {
		li := &l.Lines[i]
		if err := checkIndex("vertex", li.V1Num, len(l.Vertexes)); err != nil {
			return errors.Wrapf(err, "line %d", i)
		}
		if err := checkIndex("vertex", li.V2Num, len(l.Vertexes)); err != nil {
			return errors.Wrapf(err, "line %d", i)
		}
		li.V1 = l.Vertexes[li.V1Num]
		li.V2 = l.Vertexes[li.V2Num]
		li.DX = li.V2.X - li.V1.X
		li.DY = li.V2.Y - li.V1.Y
		if li.SideRNum != NoSideDef {
			if err := checkIndex("side", li.SideRNum, len(l.Sides)); err != nil {
				return errors.Wrapf(err, "line %d", i)
			}
			li.SideR = &l.Sides[li.SideRNum]
			li.FrontSector = li.SideR.Sector
		}
		if li.SideLNum != NoSideDef {
			if err := checkIndex("side", li.SideLNum, len(l.Sides)); err != nil {
				return errors.Wrapf(err, "line %d", i)
			}
			li.SideL = &l.Sides[li.SideLNum]
			li.BackSector = li.SideL.Sector
		}

		switch {
		case li.DX == 0:
			li.SlopeType = SlopeTypeVertical
		case li.DY == 0:
			li.SlopeType = SlopeTypeHorizontal
		case li.DY/li.DX > 0:
			li.SlopeType = SlopeTypePositive
		default:
			li.SlopeType = SlopeTypeNegative
		}
	}

	// Line segments
	for i := range l.LineSegments {
		s := &l.LineSegments[i]
		if err := checkIndex("vertex", s.V1Num, len(l.Vertexes)); err != nil {
			return errors.Wrapf(err, "seg %d", i)
		}
		if err := checkIndex("vertex", s.V2Num, len(l.Vertexes)); err != nil {
			return errors.Wrapf(err, "seg %d", i)
		}
		if err := checkIndex("line", s.LineNum, len(l.Lines)); err != nil {
			return errors.Wrapf(err, "seg %d", i)
		}
		s.V1 = l.Vertexes[s.V1Num]
		s.V2 = l.Vertexes[s.V2Num]
		s.Line = &l.Lines[s.LineNum]
		sideNum := s.Line.SideRNum
		if s.IsSideL {
			sideNum = s.Line.SideLNum
		}
		if err := checkIndex("side", sideNum, len(l.Sides)); err != nil {
			return errors.Wrapf(err, "seg %d", i)
		}
		s.Side = &l.Sides[sideNum]
		s.FrontSector = s.Side.Sector
		if s.Line.TwoSided {
			backNum := s.Line.SideLNum
			if s.IsSideL {
				backNum = s.Line.SideRNum
			}
			if err := checkIndex("side", backNum, len(l.Sides)); err != nil {
				return errors.Wrapf(err, "seg %d", i)
			}
			s.BackSector = l.Sides[backNum].Sector
		}
	}

	// Subsectors reference contiguous seg runs.
	for i := range l.SubSectors {
		s := &l.SubSectors[i]
		if s.NumSegments < 0 || s.StartLineSegment < 0 ||
			s.StartLineSegment+s.NumSegments > len(l.LineSegments) {
			return errors.Wrapf(ErrFormat, "subsector %d: segs [%d,%d) out of range [0,%d)",
				i, s.StartLineSegment, s.StartLineSegment+s.NumSegments, len(l.LineSegments))
		}
		s.LineSegments = l.LineSegments[s.StartLineSegment : s.StartLineSegment+s.NumSegments]
		if len(s.LineSegments) > 0 {
			s.Sector = s.LineSegments[0].Side.Sector
		}
	}

	// Node children. The child encoding caps the tree at 0x8000 nodes.
	if len(l.Nodes) > subSectorBit {
		return errors.Wrapf(ErrFormat, "node count %d exceeds format limit %d", len(l.Nodes), subSectorBit)
	}
	for i := range l.Nodes {
		n := &l.Nodes[i]
		for _, c := range [2]NodeChild{n.ChildR, n.ChildL} {
			if c.IsSubSector() {
				if err := checkIndex("subsector", c.Num(), len(l.SubSectors)); err != nil {
					return errors.Wrapf(err, "node %d", i)
				}
			} else if err := checkIndex("node", c.Num(), len(l.Nodes)); err != nil {
				return errors.Wrapf(err, "node %d", i)
			}
		}
	}

	// Sectors collect their lines.
	for i := range l.Sectors {
		s := &l.Sectors[i]
		for j := range l.Lines {
			li := &l.Lines[j]
			if li.FrontSector == s || li.BackSector == s {
				s.Lines = append(s.Lines, li)
			}
		}
	}

	return nil
}

// Reject is the precomputed sector-to-sector line-of-sight table.
// Reject[a][b] reports that sector a cannot see sector b.
type Reject [][]bool

// ReadReject decodes the REJECT lump of the currently published map. The
// table is decoded on demand; a failure here never unpublishes the map.
func (w *WAD) ReadReject() (Reject, error) {
	l, err := w.Level()
	if err != nil {
		return nil, err
	}
	logger.Println("Reading Reject ...")

	index := l.markerIndex + lumpReject
	if index >= len(w.lumpInfos) || w.lumpInfos[index].Name != "REJECT" {
		return nil, errors.Wrapf(ErrFormat, "map %q: no REJECT lump", l.Name)
	}
	lump, err := w.readLumpBytes(index)
	if err != nil {
		return nil, err
	}

	numSectors := len(l.Sectors)
	if need := (numSectors*numSectors + 7) / 8; len(lump) < need {
		return nil, errors.Wrapf(ErrFormat, "map %q: REJECT is %d bytes, want at least %d for %d sectors",
			l.Name, len(lump), need, numSectors)
	}
	reject := make(Reject, numSectors)
	for sector1 := range reject {
		reject[sector1] = make([]bool, numSectors)
		for sector2 := range reject[sector1] {
			cell := sector1*numSectors + sector2
			if lump[cell/8]>>(cell%8)&1 != 0 {
				reject[sector1][sector2] = true
			}
		}
	}
	logger.Printf("Read Reject table: %v sectors", len(reject))
	return reject, nil
}

type binBlockMapHeader struct {
	OriginX, OriginY int16
	Columns, Rows    int16
}

// BlockMap is level data created from the axis-aligned bounding box of the
// map, a rectangular array of blocks used to speed up collision detection.
type BlockMap struct {
	OriginX, OriginY    float64
	NumColumns, NumRows int
	Blocks              []Block
}

// Block lists the lines crossing one blockmap cell.
type Block struct {
	LineNums []int
	Lines    []*Line
}

// Block returns the block at column x, row y.
func (b *BlockMap) Block(x, y int) *Block {
	return &b.Blocks[y*b.NumColumns+x]
}

// ReadBlockMap decodes the BLOCKMAP lump of the currently published map,
// on demand like ReadReject.
func (w *WAD) ReadBlockMap() (*BlockMap, error) {
	l, err := w.Level()
	if err != nil {
		return nil, err
	}
	logger.Println("Reading Block Map ...")

	index := l.markerIndex + lumpBlockMap
	if index >= len(w.lumpInfos) || w.lumpInfos[index].Name != "BLOCKMAP" {
		return nil, errors.Wrapf(ErrFormat, "map %q: no BLOCKMAP lump", l.Name)
	}
	lump, err := w.readLumpBytes(index)
	if err != nil {
		return nil, err
	}
	buffer := bytes.NewReader(lump)

	var header binBlockMapHeader
	if err := binary.Read(buffer, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrap(err, "reading blockmap header")
	}
	offsets := make([]uint16, int(header.Columns)*int(header.Rows))
	if err := binary.Read(buffer, binary.LittleEndian, offsets); err != nil {
		return nil, errors.Wrap(err, "reading blockmap offsets")
	}

	blockMap := BlockMap{
		OriginX:    float64(header.OriginX),
		OriginY:    float64(header.OriginY),
		NumColumns: int(header.Columns),
		NumRows:    int(header.Rows),
		Blocks:     make([]Block, 0, len(offsets)),
	}

	// Each offset is in words from the start of the lump. A block list
	// starts with a zero word and ends with 0xFFFF.
	for i, o := range offsets {
		pos := 2 * int(o)
		if pos >= len(lump) {
			return nil, errors.Wrapf(ErrFormat, "blockmap offset %d points past lump end", i)
		}
		reader := bytes.NewReader(lump[pos:])
		lineNums := make([]int, 0)
		for {
			var lineNum uint16
			if err := binary.Read(reader, binary.LittleEndian, &lineNum); err != nil {
				return nil, errors.Wrapf(ErrFormat, "blockmap list %d is unterminated", i)
			}
			if lineNum == 0xffff {
				break
			}
			if lineNum == 0 {
				continue // list start marker
			}
			if err := checkIndex("line", int(lineNum), len(l.Lines)); err != nil {
				return nil, errors.Wrapf(err, "blockmap list %d", i)
			}
			lineNums = append(lineNums, int(lineNum))
		}
		block := Block{LineNums: lineNums}
		for _, n := range lineNums {
			block.Lines = append(block.Lines, &l.Lines[n])
		}
		blockMap.Blocks = append(blockMap.Blocks, block)
	}
	logger.Printf("Read %v blocks", len(blockMap.Blocks))
	return &blockMap, nil
}
