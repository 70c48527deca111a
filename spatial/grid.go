// Package spatial implements the 3D bounding-volume index that stores
// every celestial body by stable id, keyed by position, with radius
// queries used to compute per-player visibility each tick.
package spatial

import "math"

// Point is a bare Cartesian position, independent of the world package's
// Vector3 so this package has no upward dependency.
type Point struct {
	X, Y, Z float64
}

func (p Point) distanceSquared(o Point) float64 {
	dx, dy, dz := p.X-o.X, p.Y-o.Y, p.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

type cellKey struct{ x, y, z int64 }

// Index is a uniform grid over 3D space: bodies are bucketed into fixed-
// size cells so a radius query only needs to visit the handful of cells
// overlapping the query's bounding box before an exact distance filter,
// rather than scanning every live body.
type Index struct {
	cellSize  float64
	cells     map[cellKey]map[uint32]struct{}
	positions map[uint32]Point
}

// New creates an index with the given cell size; a cell size comparable
// to the typical query radius keeps both insert and query cheap.
func New(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = 1000
	}
	return &Index{
		cellSize:  cellSize,
		cells:     make(map[cellKey]map[uint32]struct{}),
		positions: make(map[uint32]Point),
	}
}

func (idx *Index) keyFor(p Point) cellKey {
	return cellKey{
		x: int64(math.Floor(p.X / idx.cellSize)),
		y: int64(math.Floor(p.Y / idx.cellSize)),
		z: int64(math.Floor(p.Z / idx.cellSize)),
	}
}

// Insert adds or relocates id at pos. Callers hold the world lock around
// this call; the index itself is not separately synchronized.
func (idx *Index) Insert(id uint32, pos Point) {
	if old, ok := idx.positions[id]; ok {
		idx.removeFromCell(id, old)
	}
	idx.positions[id] = pos
	key := idx.keyFor(pos)
	bucket, ok := idx.cells[key]
	if !ok {
		bucket = make(map[uint32]struct{})
		idx.cells[key] = bucket
	}
	bucket[id] = struct{}{}
}

func (idx *Index) removeFromCell(id uint32, pos Point) {
	key := idx.keyFor(pos)
	if bucket, ok := idx.cells[key]; ok {
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(idx.cells, key)
		}
	}
}

// Remove deletes id from the index. A no-op if id is not present.
func (idx *Index) Remove(id uint32) {
	pos, ok := idx.positions[id]
	if !ok {
		return
	}
	idx.removeFromCell(id, pos)
	delete(idx.positions, id)
}

// Contains reports whether id is currently indexed.
func (idx *Index) Contains(id uint32) bool {
	_, ok := idx.positions[id]
	return ok
}

// Len returns the number of indexed bodies.
func (idx *Index) Len() int {
	return len(idx.positions)
}

// All returns every indexed id; order is unspecified.
func (idx *Index) All() []uint32 {
	ids := make([]uint32, 0, len(idx.positions))
	for id := range idx.positions {
		ids = append(ids, id)
	}
	return ids
}

// Radius returns every id within Euclidean distance r of center,
// inclusive of the boundary. Result order is unspecified.
func (idx *Index) Radius(center Point, r float64) []uint32 {
	rSquared := r * r
	cellSpan := int64(math.Ceil(r / idx.cellSize))
	centerKey := idx.keyFor(center)

	var found []uint32
	for dx := -cellSpan; dx <= cellSpan; dx++ {
		for dy := -cellSpan; dy <= cellSpan; dy++ {
			for dz := -cellSpan; dz <= cellSpan; dz++ {
				key := cellKey{centerKey.x + dx, centerKey.y + dy, centerKey.z + dz}
				bucket, ok := idx.cells[key]
				if !ok {
					continue
				}
				for id := range bucket {
					if center.distanceSquared(idx.positions[id]) <= rSquared {
						found = append(found, id)
					}
				}
			}
		}
	}
	return found
}
