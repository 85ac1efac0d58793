package wad

import (
	"io"
	"log"
)

var logger *log.Logger = log.New(io.Discard, "", log.LstdFlags)

// SetLogger directs the package's progress output to l. By default it is
// discarded.
func SetLogger(l *log.Logger) {
	logger = l
}
