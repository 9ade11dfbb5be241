package tagtree

// Element is one field of a Dataset: either a list of values or, for
// sequences (VR "SQ"), a list of nested items.
type Element struct {
	VR     string
	Values []Value
	Items  []*Dataset
}

// IsSequence reports whether the element holds nested items.
func (e *Element) IsSequence() bool {
	return e.VR == "SQ" || e.Items != nil
}

// Dataset is an in-memory tagged tree. It implements Reader and is the
// common target of the JSON and Part 10 adapters.
type Dataset struct {
	elements map[Tag]*Element
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{elements: make(map[Tag]*Element)}
}

// Set stores values under t and returns d for chaining.
func (d *Dataset) Set(t Tag, vr string, values ...Value) *Dataset {
	d.elements[t] = &Element{VR: vr, Values: values}
	return d
}

// SetSequence stores items as the sequence under t and returns d for chaining.
// A call with no items stores a present but empty sequence.
func (d *Dataset) SetSequence(t Tag, items ...*Dataset) *Dataset {
	if items == nil {
		items = []*Dataset{}
	}
	d.elements[t] = &Element{VR: "SQ", Items: items}
	return d
}

// Element returns the element stored directly under t.
func (d *Dataset) Element(t Tag) (*Element, bool) {
	e, ok := d.elements[t]
	return e, ok
}

// Len returns the number of top-level elements.
func (d *Dataset) Len() int {
	return len(d.elements)
}

// Scalar implements Reader.Scalar.
func (d *Dataset) Scalar(p Path) (Value, error) {
	e, err := d.resolve(p)
	if err != nil {
		return Value{}, err
	}
	if len(e.Values) == 0 {
		return Value{}, &ResolveError{Path: p, Depth: len(p) - 1, Err: ErrNotFound}
	}
	return e.Values[0], nil
}

// Array implements Reader.Array.
func (d *Dataset) Array(p Path) ([]Value, error) {
	e, err := d.resolve(p)
	if err != nil {
		return nil, err
	}
	if e.IsSequence() {
		return nil, &ResolveError{Path: p, Depth: len(p) - 1, Err: ErrNotFound}
	}
	out := make([]Value, len(e.Values))
	copy(out, e.Values)
	return out, nil
}

// ChildCount implements Reader.ChildCount.
func (d *Dataset) ChildCount(p Path) (int, error) {
	e, err := d.resolve(p)
	if err != nil {
		return 0, err
	}
	if !e.IsSequence() {
		return 0, &ResolveError{Path: p, Depth: len(p) - 1, Err: ErrNotSequence}
	}
	return len(e.Items), nil
}

// resolve walks p and returns the element addressed by its last step.
// A trailing index is ignored here: callers address whole elements.
func (d *Dataset) resolve(p Path) (*Element, error) {
	if len(p) == 0 {
		return nil, &ResolveError{Path: p, Err: ErrBadPath}
	}
	cur := d
	for i, step := range p {
		e, ok := cur.elements[step.Tag]
		if !ok {
			return nil, &ResolveError{Path: p, Depth: i, Err: ErrNotFound}
		}
		if i == len(p)-1 {
			return e, nil
		}
		if !step.Indexed() {
			return nil, &ResolveError{Path: p, Depth: i, Err: ErrBadPath}
		}
		if !e.IsSequence() {
			return nil, &ResolveError{Path: p, Depth: i, Err: ErrNotSequence}
		}
		if step.Item < 0 || step.Item >= len(e.Items) || e.Items[step.Item] == nil {
			return nil, &ResolveError{Path: p, Depth: i, Err: ErrNoItem}
		}
		cur = e.Items[step.Item]
	}
	return nil, &ResolveError{Path: p, Err: ErrBadPath}
}
