// Package layout positions a forest of titled nodes so that sibling subtrees never
// overlap horizontally.
//
// A layout pass is a pure function of its input records:
//
//	idx, err := layout.BuildIndex(records)
//	d, err := layout.NewEngine(layout.DefaultConfig()).Layout(idx)
//
// Each subtree reserves a footprint equal to the sum of its children's footprints
// (a leaf reserves one node width). Parents are centered over that footprint and
// children are placed left to right in input order.
package layout

// Record is a titled node with an optional parent reference
type Record struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ParentID *int64 `json:"parentId"`
}

// DanglingPolicy selects how BuildIndex treats a parent id that matches no record
type DanglingPolicy int

const (
	// DanglingReject fails the build with a DanglingReferenceError
	DanglingReject DanglingPolicy = iota
	// DanglingAsRoot reclassifies the record as a root and drops its edge
	DanglingAsRoot
)

// IndexOption configures BuildIndex
type IndexOption func(*indexOptions)

type indexOptions struct {
	dangling DanglingPolicy
}

// WithDanglingPolicy sets the dangling parent policy
func WithDanglingPolicy(p DanglingPolicy) IndexOption {
	return func(o *indexOptions) { o.dangling = p }
}

// WithDanglingAsRoot treats records with a missing parent as roots
func WithDanglingAsRoot() IndexOption {
	return WithDanglingPolicy(DanglingAsRoot)
}

// Index is the parent to children adjacency of one record snapshot.
// It is built once per layout pass and not modified afterwards.
type Index struct {
	records  []Record
	pos      map[int64]int
	children map[int64][]int64
	roots    []int64
	promoted map[int64]bool
}

// BuildIndex groups records by parent, keeping input order within each sibling group
func BuildIndex(records []Record, opts ...IndexOption) (*Index, error) {
	var o indexOptions
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		records:  records,
		pos:      make(map[int64]int, len(records)),
		children: make(map[int64][]int64),
		promoted: make(map[int64]bool),
	}

	// First pass: register every id so forward references resolve
	for i, r := range records {
		if _, exists := idx.pos[r.ID]; exists {
			return nil, &DuplicateIDError{ID: r.ID}
		}
		idx.pos[r.ID] = i
	}

	// Second pass: attach each record to its parent's sibling group
	for _, r := range records {
		if r.ParentID == nil {
			idx.roots = append(idx.roots, r.ID)
			continue
		}
		if _, exists := idx.pos[*r.ParentID]; !exists {
			if o.dangling == DanglingAsRoot {
				idx.roots = append(idx.roots, r.ID)
				idx.promoted[r.ID] = true
				continue
			}
			return nil, &DanglingReferenceError{ID: r.ID, ParentID: *r.ParentID}
		}
		idx.children[*r.ParentID] = append(idx.children[*r.ParentID], r.ID)
	}

	return idx, nil
}

// Len returns the number of indexed records
func (idx *Index) Len() int {
	return len(idx.records)
}

// Roots returns the root ids in input order
func (idx *Index) Roots() []int64 {
	return append([]int64(nil), idx.roots...)
}

// Children returns the child ids of id in input order
func (idx *Index) Children(id int64) []int64 {
	return append([]int64(nil), idx.children[id]...)
}

// Record returns the record with the given id
func (idx *Index) Record(id int64) (Record, bool) {
	i, ok := idx.pos[id]
	if !ok {
		return Record{}, false
	}
	return idx.records[i], true
}

// Promoted reports whether id was made a root because its parent was missing
func (idx *Index) Promoted(id int64) bool {
	return idx.promoted[id]
}
