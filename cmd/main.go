package main

import (
	"fmt"
	"log"
	"os"

	"wad"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <file.wad> [mapname]", os.Args[0])
	}

	// Set WAD logger
	wad.SetLogger(log.New(os.Stderr, "", log.LstdFlags))

	w, err := wad.NewWAD(os.Args[1])
	if err != nil {
		log.Fatalln(err)
	}
	defer w.Close()

	names := w.LevelNames()
	fmt.Println("Maps:", names)

	mapName := ""
	switch {
	case len(os.Args) > 2:
		mapName = os.Args[2]
	case len(names) > 0:
		mapName = names[0]
	default:
		log.Fatalln("no maps in archive")
	}

	found, err := w.ChangeMap(mapName)
	if err != nil {
		log.Fatalln(err)
	}
	if !found {
		log.Fatalf("map %q not found", mapName)
	}

	level, err := w.Level()
	if err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("%s: %d things, %d lines, %d vertexes, %d segs, %d subsectors, %d nodes, %d sectors\n",
		level.Name, len(level.Things), len(level.Lines), len(level.Vertexes),
		len(level.LineSegments), len(level.SubSectors), len(level.Nodes), len(level.Sectors))

	// Walk the BSP from the player 1 start.
	x, y := 0.0, 0.0
	for _, t := range level.Things {
		if t.Type == 1 {
			x, y = float64(t.X), float64(t.Y)
			break
		}
	}
	tree := wad.NewBSPTree(level)
	order := 0
	err = tree.Traverse(x, y, func(num int, segs []wad.LineSegment) {
		fmt.Printf("%4d: subsector %d (%d segs)\n", order, num, len(segs))
		order++
	})
	if err != nil {
		log.Fatalln(err)
	}
}
