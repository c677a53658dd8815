// Package systems provides the per-agent rules and the spatial grid they run on.
package systems

import (
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/fitness/components"
	"github.com/pthm-cable/fitness/config"
	"github.com/pthm-cable/fitness/random"
)

// Grid is a 2-D cell grid holding an ordered list of agents per cell.
// Cells are either wrapped (torus) or bounded at the edges.
type Grid struct {
	width  int
	height int
	torus  bool
	moore  bool
	cells  [][]ecs.Entity // flat row-major grid of entity lists
	count  int
}

// NewGrid creates an empty grid. neighborhood is config.NeighborhoodMoore or
// config.NeighborhoodVonNeumann.
func NewGrid(width, height int, torus bool, neighborhood string) *Grid {
	cells := make([][]ecs.Entity, width*height)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}
	return &Grid{
		width:  width,
		height: height,
		torus:  torus,
		moore:  neighborhood != config.NeighborhoodVonNeumann,
		cells:  cells,
	}
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// CellCount returns the number of cells.
func (g *Grid) CellCount() int { return g.width * g.height }

// Population returns the number of agents placed on the grid.
func (g *Grid) Population() int { return g.count }

// Contains reports whether c lies on the grid.
func (g *Grid) Contains(c components.Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// AllCells returns every cell in row-major order.
func (g *Grid) AllCells() []components.Cell {
	out := make([]components.Cell, 0, g.CellCount())
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			out = append(out, components.Cell{X: x, Y: y})
		}
	}
	return out
}

// Agents returns the agents in c in placement order.
// The returned slice is owned by the grid and must not be modified.
func (g *Grid) Agents(c components.Cell) []ecs.Entity {
	return g.cells[g.cellIndex(c)]
}

// Place adds e to c.
func (g *Grid) Place(e ecs.Entity, c components.Cell) {
	idx := g.cellIndex(c)
	g.cells[idx] = append(g.cells[idx], e)
	g.count++
}

// Remove deletes e from c, keeping the order of the remaining agents.
// Returns false if e was not in c.
func (g *Grid) Remove(e ecs.Entity, c components.Cell) bool {
	idx := g.cellIndex(c)
	i := slices.Index(g.cells[idx], e)
	if i < 0 {
		return false
	}
	g.cells[idx] = slices.Delete(g.cells[idx], i, i+1)
	g.count--
	return true
}

// Move relocates e from one cell to another.
func (g *Grid) Move(e ecs.Entity, from, to components.Cell) {
	if from == to {
		return
	}
	if g.Remove(e, from) {
		g.Place(e, to)
	}
}

// Neighborhood returns the distinct cells within radius of c, in a fixed
// enumeration order. Moore grids use Chebyshev distance, von Neumann grids
// Manhattan distance. The center is excluded unless includeCenter is set,
// even when wrapping maps an offset back onto it.
func (g *Grid) Neighborhood(c components.Cell, radius int, includeCenter bool) []components.Cell {
	var out []components.Cell
	seen := make(map[int]struct{}, (2*radius+1)*(2*radius+1))
	centerIdx := g.cellIndex(c)
	if includeCenter {
		out = append(out, c)
	}
	seen[centerIdx] = struct{}{}

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if !g.moore && abs(dx)+abs(dy) > radius {
				continue
			}
			n, ok := g.offset(c, dx, dy)
			if !ok {
				continue
			}
			idx := g.cellIndex(n)
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

// RandomNeighbor returns a uniformly chosen cell from the radius-1
// neighborhood of c, or c itself when that neighborhood is empty.
func (g *Grid) RandomNeighbor(c components.Cell, src *random.Source) components.Cell {
	n, ok := random.Choice(src, g.Neighborhood(c, 1, false))
	if !ok {
		return c
	}
	return n
}

// AgentsWithin returns the agents occupying any cell of the neighborhood of c,
// grouped by cell in neighborhood order.
func (g *Grid) AgentsWithin(c components.Cell, radius int, includeCenter bool) []ecs.Entity {
	var out []ecs.Entity
	for _, n := range g.Neighborhood(c, radius, includeCenter) {
		out = append(out, g.cells[g.cellIndex(n)]...)
	}
	return out
}

// RandomCell returns a uniformly chosen cell.
func (g *Grid) RandomCell(src *random.Source) components.Cell {
	return components.Cell{X: src.IntN(g.width), Y: src.IntN(g.height)}
}

// offset applies (dx, dy) to c, wrapping on a torus.
// ok is false when a bounded grid would step off the edge.
func (g *Grid) offset(c components.Cell, dx, dy int) (components.Cell, bool) {
	x, y := c.X+dx, c.Y+dy
	if g.torus {
		x = ((x % g.width) + g.width) % g.width
		y = ((y % g.height) + g.height) % g.height
		return components.Cell{X: x, Y: y}, true
	}
	n := components.Cell{X: x, Y: y}
	return n, g.Contains(n)
}

// cellIndex returns the flat index for a cell.
func (g *Grid) cellIndex(c components.Cell) int {
	return c.Y*g.width + c.X
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
