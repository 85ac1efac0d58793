package wad

import "github.com/pkg/errors"

// Error kinds. Decoding and traversal wrap these with context; callers
// discriminate with errors.Is. I/O failures are surfaced as the wrapped
// os/io errors and are never retried here.
var (
	// ErrBadMagic reports a header identification tag that is neither
	// "IWAD" nor "PWAD".
	ErrBadMagic = errors.New("wad: unrecognized magic")

	// ErrFormat reports structurally invalid data: a lump size that is not
	// a multiple of its record size, an out-of-range index, a misordered
	// map lump block, or a node tree that revisits itself.
	ErrFormat = errors.New("wad: malformed archive")

	// ErrNoMap reports an operation that needs a loaded map before any
	// successful ChangeMap.
	ErrNoMap = errors.New("wad: no map loaded")
)
