package layout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors matched by the typed errors below through errors.Is
var (
	ErrDanglingReference = errors.New("dangling parent reference")
	ErrCycle             = errors.New("cycle in parent chain")
	ErrDuplicateID       = errors.New("duplicate node id")
)

// DanglingReferenceError is returned when a record names a parent that is not in the input
type DanglingReferenceError struct {
	ID       int64
	ParentID int64
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("node %d references missing parent %d", e.ID, e.ParentID)
}

// Is reports whether target is ErrDanglingReference
func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference
}

// CycleError is returned when a parent chain revisits a node.
// Path lists the nodes on the cycle, starting and ending with the revisited node.
type CycleError struct {
	Path []int64
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("cycle in parent chain: %s", strings.Join(parts, " -> "))
}

// Is reports whether target is ErrCycle
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// DuplicateIDError is returned when two records share an id
type DuplicateIDError struct {
	ID int64
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("node id %d appears more than once", e.ID)
}

// Is reports whether target is ErrDuplicateID
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}
