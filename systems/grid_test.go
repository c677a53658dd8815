package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/random"
)

func newEntities(t *testing.T, n int) []ecs.Entity {
	t.Helper()
	world := ecs.NewWorld()
	mapper := ecs.NewMap1[components.Genome](world)
	out := make([]ecs.Entity, n)
	for i := range out {
		out[i] = mapper.NewEntity(&components.Genome{Fitness: float64(i)})
	}
	return out
}

func TestNeighborhoodSizes(t *testing.T) {
	tests := []struct {
		name          string
		w, h          int
		torus         bool
		neighborhood  string
		cell          components.Cell
		radius        int
		includeCenter bool
		want          int
	}{
		{"moore interior r1", 10, 10, false, config.NeighborhoodMoore, components.Cell{X: 5, Y: 5}, 1, false, 8},
		{"moore interior r1 center", 10, 10, false, config.NeighborhoodMoore, components.Cell{X: 5, Y: 5}, 1, true, 9},
		{"moore interior r2", 10, 10, false, config.NeighborhoodMoore, components.Cell{X: 5, Y: 5}, 2, true, 25},
		{"moore corner bounded", 10, 10, false, config.NeighborhoodMoore, components.Cell{X: 0, Y: 0}, 1, false, 3},
		{"moore corner torus", 10, 10, true, config.NeighborhoodMoore, components.Cell{X: 0, Y: 0}, 1, false, 8},
		{"von neumann r1", 10, 10, true, config.NeighborhoodVonNeumann, components.Cell{X: 5, Y: 5}, 1, false, 4},
		{"von neumann r2", 10, 10, true, config.NeighborhoodVonNeumann, components.Cell{X: 5, Y: 5}, 2, false, 12},
		{"torus 3x3 r2 dedup", 3, 3, true, config.NeighborhoodMoore, components.Cell{X: 1, Y: 1}, 2, true, 9},
		{"torus 1x1 no center", 1, 1, true, config.NeighborhoodMoore, components.Cell{}, 1, false, 0},
		{"torus 1x1 center", 1, 1, true, config.NeighborhoodMoore, components.Cell{}, 2, true, 1},
		{"bounded 1x1", 1, 1, false, config.NeighborhoodMoore, components.Cell{}, 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(tt.w, tt.h, tt.torus, tt.neighborhood)
			got := g.Neighborhood(tt.cell, tt.radius, tt.includeCenter)
			if len(got) != tt.want {
				t.Errorf("len(Neighborhood) = %d, want %d (%v)", len(got), tt.want, got)
			}
			seen := map[components.Cell]bool{}
			for _, c := range got {
				if !g.Contains(c) {
					t.Errorf("cell %v outside grid", c)
				}
				if seen[c] {
					t.Errorf("duplicate cell %v", c)
				}
				seen[c] = true
				if c == tt.cell && !tt.includeCenter {
					t.Errorf("center %v included", c)
				}
			}
		})
	}
}

func TestPlaceRemoveMove(t *testing.T) {
	g := NewGrid(4, 4, true, config.NeighborhoodMoore)
	es := newEntities(t, 3)
	a := components.Cell{X: 1, Y: 1}
	b := components.Cell{X: 2, Y: 1}

	for _, e := range es {
		g.Place(e, a)
	}
	if g.Population() != 3 {
		t.Fatalf("Population() = %d, want 3", g.Population())
	}

	g.Move(es[1], a, b)
	if got := g.Agents(a); len(got) != 2 || got[0] != es[0] || got[1] != es[2] {
		t.Errorf("Agents(a) = %v, want order preserved [%v %v]", got, es[0], es[2])
	}
	if got := g.Agents(b); len(got) != 1 || got[0] != es[1] {
		t.Errorf("Agents(b) = %v, want [%v]", got, es[1])
	}

	if g.Remove(es[1], a) {
		t.Error("Remove from wrong cell should fail")
	}
	if !g.Remove(es[1], b) {
		t.Error("Remove should succeed")
	}
	if g.Population() != 2 {
		t.Errorf("Population() = %d, want 2", g.Population())
	}
}

func TestAgentsWithin(t *testing.T) {
	g := NewGrid(10, 10, false, config.NeighborhoodMoore)
	es := newEntities(t, 4)
	g.Place(es[0], components.Cell{X: 5, Y: 5})
	g.Place(es[1], components.Cell{X: 6, Y: 6})
	g.Place(es[2], components.Cell{X: 7, Y: 7})
	g.Place(es[3], components.Cell{X: 8, Y: 8})

	within := g.AgentsWithin(components.Cell{X: 5, Y: 5}, 2, true)
	if len(within) != 3 {
		t.Errorf("AgentsWithin r2 = %d agents, want 3", len(within))
	}
	within = g.AgentsWithin(components.Cell{X: 5, Y: 5}, 2, false)
	if len(within) != 2 {
		t.Errorf("AgentsWithin r2 without center = %d agents, want 2", len(within))
	}
}

func TestRandomNeighbor(t *testing.T) {
	src := random.New(1)

	g := NewGrid(5, 5, true, config.NeighborhoodMoore)
	c := components.Cell{X: 2, Y: 2}
	for i := 0; i < 200; i++ {
		n := g.RandomNeighbor(c, src)
		dx, dy := abs(n.X-c.X), abs(n.Y-c.Y)
		if n == c || dx > 1 || dy > 1 {
			t.Fatalf("RandomNeighbor(%v) = %v", c, n)
		}
	}

	single := NewGrid(1, 1, true, config.NeighborhoodMoore)
	if n := single.RandomNeighbor(components.Cell{}, src); n != (components.Cell{}) {
		t.Errorf("1x1 RandomNeighbor = %v, want stay in place", n)
	}
}

func TestAllCells(t *testing.T) {
	g := NewGrid(3, 2, false, config.NeighborhoodMoore)
	cells := g.AllCells()
	if len(cells) != g.CellCount() {
		t.Fatalf("len(AllCells) = %d, want %d", len(cells), g.CellCount())
	}
	if cells[0] != (components.Cell{X: 0, Y: 0}) || cells[5] != (components.Cell{X: 2, Y: 1}) {
		t.Errorf("AllCells not row-major: %v", cells)
	}
}
