package bins

import (
	"errors"
	"testing"

	"github.com/batchatco/go-thrower"

	"github.com/scipp/scipp-go/scipp/core"
)

func buildEdges(edges []float64) (s *edgeSearch, err error) {
	defer thrower.RecoverError(&err)
	return newEdgeSearch(edges), nil
}

func TestEdgeSearchUniform(t *testing.T) {
	s, err := buildEdges([]float64{0, 1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !s.uniform {
		t.Error("expected a uniform grid")
	}
	cases := []struct {
		x    float64
		want int
	}{
		{-0.1, -1},
		{0, 0},
		{0.5, 0},
		{1, 1}, // bins are half-open, an edge belongs to the bin above
		{3.999, 3},
		{4, -1}, // the last edge is exclusive
		{5, -1},
	}
	for _, c := range cases {
		if got := s.bin(c.x); got != c.want {
			t.Errorf("bin(%v) = %d, want %d", c.x, got, c.want)
		}
	}
}

func TestEdgeSearchIrregular(t *testing.T) {
	s, err := buildEdges([]float64{0, 1, 10})
	if err != nil {
		t.Fatal(err)
	}
	if s.uniform {
		t.Error("expected an irregular grid")
	}
	cases := []struct {
		x    float64
		want int
	}{
		{0, 0},
		{0.999, 0},
		{1, 1},
		{5, 1},
		{10, -1},
		{-1, -1},
	}
	for _, c := range cases {
		if got := s.bin(c.x); got != c.want {
			t.Errorf("bin(%v) = %d, want %d", c.x, got, c.want)
		}
	}
}

func TestEdgeSearchParity(t *testing.T) {
	// The uniform fast path and the binary search must agree on a grid
	// that is uniform in value but forced down the general path.
	fast, err := buildEdges([]float64{0, 0.25, 0.5, 0.75, 1})
	if err != nil {
		t.Fatal(err)
	}
	slow := &edgeSearch{edges: fast.edges, uniform: false}
	for i := 0; i <= 100; i++ {
		x := float64(i) / 100
		if f, s := fast.bin(x), slow.bin(x); f != s {
			t.Errorf("bin(%v): fast %d, slow %d", x, f, s)
		}
	}
}

func TestEdgeSearchValidation(t *testing.T) {
	if _, err := buildEdges([]float64{1}); !errors.Is(err, core.ErrBinEdge) {
		t.Errorf("single edge: got %v, want ErrBinEdge", err)
	}
	if _, err := buildEdges([]float64{2, 1}); !errors.Is(err, core.ErrBinEdge) {
		t.Errorf("descending edges: got %v, want ErrBinEdge", err)
	}
	if _, err := buildEdges([]float64{1, 1, 2}); !errors.Is(err, core.ErrBinEdge) {
		t.Errorf("repeated edge: got %v, want ErrBinEdge", err)
	}
}
