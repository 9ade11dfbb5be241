package tagtree

import (
	"errors"
	"fmt"
	"strings"
)

// Tag is a (group, element) pair addressing one field of a tagged record.
type Tag struct {
	Group   uint16
	Element uint16
}

// T is shorthand for Tag{Group: group, Element: element}.
func T(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Step is one hop of a Path: a tag, optionally followed by a repetition index
// into the sequence stored under that tag.
type Step struct {
	Tag     Tag
	Item    int
	indexed bool
}

// Field returns a step that addresses the element under t itself.
func Field(t Tag) Step {
	return Step{Tag: t}
}

// Item returns a step that descends into item i of the sequence under t.
func Item(t Tag, i int) Step {
	return Step{Tag: t, Item: i, indexed: true}
}

// Indexed reports whether the step carries a repetition index.
func (s Step) Indexed() bool {
	return s.indexed
}

func (s Step) String() string {
	if s.indexed {
		return fmt.Sprintf("%s[%d]", s.Tag, s.Item)
	}
	return s.Tag.String()
}

// Path is an ordered list of steps from the dataset root. Every step except
// the last must be indexed.
type Path []Step

// Join returns a new path with steps appended; p is never modified.
func (p Path) Join(steps ...Step) Path {
	out := make(Path, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

var (
	// ErrNotFound is returned when a tag on the path is absent or has no value.
	ErrNotFound = errors.New("tag not found")

	// ErrNoItem is returned when a repetition index is past the sequence's item count.
	ErrNoItem = errors.New("sequence item not found")

	// ErrNotSequence is returned when the path descends through an element that
	// is not a sequence.
	ErrNotSequence = errors.New("element is not a sequence")

	// ErrBadPath is returned for a path that is empty or has an unindexed inner step.
	ErrBadPath = errors.New("malformed path")
)

// ResolveError reports which step of a path could not be resolved.
type ResolveError struct {
	Path  Path
	Depth int
	Err   error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s at step %d: %v", e.Path, e.Depth, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Reader resolves paths against a tagged hierarchical record.
type Reader interface {
	// Scalar returns the first value of the element at p.
	Scalar(p Path) (Value, error)

	// Array returns every value of the element at p; its length is the
	// element's value multiplicity.
	Array(p Path) ([]Value, error)

	// ChildCount returns the number of items in the sequence at p.
	ChildCount(p Path) (int, error)
}
