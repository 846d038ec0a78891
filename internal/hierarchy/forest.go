// Package hierarchy builds the parent/child forest of CityObjects and maps
// their members to and from dotted attribute keys.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mohammed-shakir/cityjson-codec/internal/cityjson"
)

var (
	ErrDanglingParent = errors.New("parent not found")
	ErrCycle          = errors.New("parent cycle")
	ErrChildMismatch  = errors.New("children list disagrees with parents")
)

// Node is one CityObject in the forest. Parent is -1 for roots.
type Node struct {
	ID       string
	Parent   int
	Children []int
}

// Forest is an arena of nodes addressed by index.
type Forest struct {
	Nodes []Node
	Roots []int
	byID  map[string]int
}

// Build links every object to parents[0]. Objects whose parent is missing
// or that sit on a cycle become roots and are reported. Stored children
// lists are only checked against the parents, never used for linking.
func Build(objects map[string]*cityjson.CityObject) (*Forest, []error) {
	ids := make([]string, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	f := &Forest{Nodes: make([]Node, len(ids)), byID: make(map[string]int, len(ids))}
	for i, id := range ids {
		f.Nodes[i] = Node{ID: id, Parent: -1}
		f.byID[id] = i
	}

	var issues []error
	for i, id := range ids {
		o := objects[id]
		if o == nil || len(o.Parents) == 0 {
			continue
		}
		p, ok := f.byID[o.Parents[0]]
		if !ok {
			issues = append(issues, &cityjson.ObjectError{ObjectID: id, Err: fmt.Errorf("%w: %q", ErrDanglingParent, o.Parents[0])})
			continue
		}
		f.Nodes[i].Parent = p
	}

	// ids are visited in sorted order, so the first member of a cycle is the
	// one that loses its parent
	for i := range f.Nodes {
		if f.onCycle(i) {
			issues = append(issues, &cityjson.ObjectError{ObjectID: f.Nodes[i].ID,
				Err: fmt.Errorf("%w through %q", ErrCycle, f.Nodes[f.Nodes[i].Parent].ID)})
			f.Nodes[i].Parent = -1
		}
	}

	for i := range f.Nodes {
		if p := f.Nodes[i].Parent; p >= 0 {
			f.Nodes[p].Children = append(f.Nodes[p].Children, i)
		} else {
			f.Roots = append(f.Roots, i)
		}
	}

	for _, id := range ids {
		o := objects[id]
		if o == nil {
			continue
		}
		for _, c := range o.Children {
			ci, ok := f.byID[c]
			if !ok || f.Nodes[ci].Parent != f.byID[id] {
				issues = append(issues, &cityjson.ObjectError{ObjectID: id, Err: fmt.Errorf("%w: %q", ErrChildMismatch, c)})
			}
		}
	}
	return f, issues
}

func (f *Forest) onCycle(start int) bool {
	seen := map[int]bool{start: true}
	for n := f.Nodes[start].Parent; n >= 0; n = f.Nodes[n].Parent {
		if n == start {
			return true
		}
		if seen[n] {
			// a cycle further up that does not include start
			return false
		}
		seen[n] = true
	}
	return false
}

func (f *Forest) Index(id string) (int, bool) {
	i, ok := f.byID[id]
	return i, ok
}

// ParentOf returns the parent id, or "" for roots and unknown ids.
func (f *Forest) ParentOf(id string) string {
	i, ok := f.byID[id]
	if !ok || f.Nodes[i].Parent < 0 {
		return ""
	}
	return f.Nodes[f.Nodes[i].Parent].ID
}

func (f *Forest) ChildrenOf(id string) []string {
	i, ok := f.byID[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(f.Nodes[i].Children))
	for _, c := range f.Nodes[i].Children {
		out = append(out, f.Nodes[c].ID)
	}
	return out
}

func (f *Forest) RootIDs() []string {
	out := make([]string, 0, len(f.Roots))
	for _, r := range f.Roots {
		out = append(out, f.Nodes[r].ID)
	}
	return out
}

// Walk visits every node depth first, parents before children. A non-nil
// error from fn stops the walk.
func (f *Forest) Walk(fn func(n Node, depth int) error) error {
	var visit func(i, depth int) error
	visit = func(i, depth int) error {
		if err := fn(f.Nodes[i], depth); err != nil {
			return err
		}
		for _, c := range f.Nodes[i].Children {
			if err := visit(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range f.Roots {
		if err := visit(r, 0); err != nil {
			return err
		}
	}
	return nil
}

// Links is the children/parents pair written for one object.
type Links struct {
	Children []string
	Parents  []string
}

// Link derives the written hierarchy from observed parent pointers. Children
// are listed in the order the objects appear in order. A parent that is not
// part of order is dropped and reported.
func Link(order []string, parentOf map[string]string) (map[string]Links, []error) {
	known := make(map[string]bool, len(order))
	for _, id := range order {
		known[id] = true
	}
	out := make(map[string]Links, len(order))
	var issues []error
	for _, id := range order {
		p := parentOf[id]
		if p == "" {
			continue
		}
		if !known[p] || p == id {
			issues = append(issues, &cityjson.ObjectError{ObjectID: id, Err: fmt.Errorf("%w: %q", ErrDanglingParent, p)})
			continue
		}
		l := out[id]
		l.Parents = []string{p}
		out[id] = l

		pl := out[p]
		pl.Children = append(pl.Children, id)
		out[p] = pl
	}
	return out, issues
}
