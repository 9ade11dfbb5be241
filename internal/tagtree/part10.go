package tagtree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/suyashkumar/dicom"
)

// Open loads the record at path: ".json" files are read as the DICOM JSON
// model, anything else as a DICOM Part 10 file.
func Open(path string) (*Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return DecodeJSON(f)
	}
	return ReadPart10(path)
}

// ReadPart10 parses a DICOM Part 10 file into a Dataset. Pixel data is skipped.
func ReadPart10(path string) (*Dataset, error) {
	parsed, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fromDICOM(parsed.Elements), nil
}

func fromDICOM(elems []*dicom.Element) *Dataset {
	ds := NewDataset()
	for _, e := range elems {
		if e == nil || e.Value == nil {
			continue
		}
		t := Tag{Group: e.Tag.Group, Element: e.Tag.Element}
		switch e.Value.ValueType() {
		case dicom.Sequences:
			seq, _ := e.Value.GetValue().([]*dicom.SequenceItemValue)
			items := make([]*Dataset, 0, len(seq))
			for _, item := range seq {
				children, _ := item.GetValue().([]*dicom.Element)
				items = append(items, fromDICOM(children))
			}
			ds.SetSequence(t, items...)
		case dicom.Strings:
			strs, _ := e.Value.GetValue().([]string)
			values := make([]Value, len(strs))
			for i, s := range strs {
				values[i] = Text(strings.TrimRight(s, " \x00"))
			}
			ds.Set(t, e.RawValueRepresentation, values...)
		case dicom.Ints:
			ints, _ := e.Value.GetValue().([]int)
			values := make([]Value, len(ints))
			for i, n := range ints {
				values[i] = Number(float64(n))
			}
			ds.Set(t, e.RawValueRepresentation, values...)
		case dicom.Floats:
			fs, _ := e.Value.GetValue().([]float64)
			ds.Set(t, e.RawValueRepresentation, Numbers(fs...)...)
		}
	}
	return ds
}
