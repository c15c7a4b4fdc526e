package sim

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	Generate() string
}

var idGenerator IDGenerator = &sequentialIDGenerator{}

// GetIDGenerator returns the ID generator used in the current process. IDs
// are sequential numbers and stay unique when several runs share the
// process.
func GetIDGenerator() IDGenerator {
	return idGenerator
}

type sequentialIDGenerator struct {
	nextID atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.nextID.Add(1), 10)
}
