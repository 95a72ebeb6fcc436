// Package bins implements the bucket engine: binning event data into
// ragged per-cell sub-arrays, concatenating and folding them, reading
// them out into dense histograms, and split-apply-combine reductions.
package bins

import (
	"fmt"
	"math"
	"sort"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/internal"
	"github.com/scipp/scipp-go/scipp/core"
)

var (
	logger = internal.NewLogger("bins")
)

// SetLogLevel sets the logging level to the given level, and returns the
// old level.
func SetLogLevel(level int) int {
	old := logger.LogLevel()
	switch level {
	case 0:
		logger.SetLogLevel(internal.LevelFatal)
	case 1:
		logger.SetLogLevel(internal.LevelError)
	case 2:
		logger.SetLogLevel(internal.LevelWarn)
	default:
		logger.SetLogLevel(internal.LevelInfo)
	}
	return int(old)
}

func fail(message string, err error) {
	logger.Error(message)
	thrower.Throw(err)
}

func assert(condition bool, message string, err error) {
	if condition {
		return
	}
	fail(message, err)
}

// edgeSearch maps a coordinate value to its bin index, or -1 when the
// value falls outside the edges.  A uniform grid gets a constant-time
// index computation; anything else falls back to binary search over the
// sorted edges.
type edgeSearch struct {
	edges   []float64
	uniform bool
	width   float64
}

// newEdgeSearch validates and analyzes bin edges: at least two, strictly
// sorted ascending.
func newEdgeSearch(edges []float64) *edgeSearch {
	assert(len(edges) >= 2,
		fmt.Sprintf("need at least 2 bin edges, got %d", len(edges)),
		core.ErrBinEdge)
	for i := 1; i < len(edges); i++ {
		assert(edges[i] > edges[i-1],
			fmt.Sprintf("bin edges not sorted at position %d", i),
			core.ErrBinEdge)
	}
	s := &edgeSearch{edges: edges}
	span := edges[len(edges)-1] - edges[0]
	width := span / float64(len(edges)-1)
	s.uniform = true
	for i := 1; i < len(edges); i++ {
		expected := edges[0] + float64(i)*width
		if math.Abs(edges[i]-expected) > 1e-11*span {
			s.uniform = false
			break
		}
	}
	s.width = width
	return s
}

// nbins returns the number of bins the edges describe.
func (s *edgeSearch) nbins() int {
	return len(s.edges) - 1
}

// bin returns the index of the half-open bin [e_i, e_i+1) containing x,
// or -1.
func (s *edgeSearch) bin(x float64) int {
	lo := s.edges[0]
	hi := s.edges[len(s.edges)-1]
	if x < lo || x >= hi {
		return -1
	}
	if s.uniform {
		i := int((x - lo) / s.width)
		if i >= s.nbins() {
			i = s.nbins() - 1
		}
		// Guard against rounding at the bin boundaries.
		for i > 0 && x < s.edges[i] {
			i--
		}
		for i < s.nbins()-1 && x >= s.edges[i+1] {
			i++
		}
		return i
	}
	i := sort.SearchFloat64s(s.edges, x)
	if i < len(s.edges) && s.edges[i] == x {
		return i
	}
	return i - 1
}

// edgeValues extracts and validates an edges variable: 1-D float64 over
// the dimension it defines.
func edgeValues(edges core.Variable) (dim string, s *edgeSearch) {
	d := edges.Dims()
	assert(d.Len() == 1, "bin edges must be one-dimensional", core.ErrBinEdge)
	assert(edges.DType() == core.DTypeFloat64,
		"bin edges must be float64", core.ErrDType)
	return d.At(0).Name, newEdgeSearch(edges.Values())
}
