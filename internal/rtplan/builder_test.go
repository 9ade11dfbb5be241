package rtplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtplan-service/internal/tagtree"
)

func TestDecode_scenario(t *testing.T) {
	out, err := DecodeReader(scenarioPlan())
	require.NoError(t, err)
	assert.True(t, out.Complete(), "warnings: %v", out.Warnings)

	plan := out.Plan
	assert.Equal(t, 8, plan.LeafCount)
	require.Len(t, plan.Beams, 1)
	frames := plan.Beams[0].Frames
	require.Len(t, frames, 3)

	first := frames[0]
	assert.Equal(t, ShapeFull, first.Shape)
	x, ok := first.Jaw(AxisX)
	require.True(t, ok)
	assert.Equal(t, JawPositions{Axis: AxisX, Near: -50, Far: 50}, x)
	y, ok := first.Jaw(AxisY)
	require.True(t, ok)
	assert.Equal(t, JawPositions{Axis: AxisY, Near: -30, Far: 30}, y)
	require.NotNil(t, first.Leaves)
	assert.Equal(t, []float64{-10, -9, -8, -7}, first.Leaves.A)
	assert.Equal(t, []float64{10, 9, 8, 7}, first.Leaves.B)

	for _, f := range frames[1:] {
		assert.Equal(t, ShapeSingleDevice, f.Shape)
		assert.Empty(t, f.Jaws, "jaws are not carried forward")
		require.NotNil(t, f.Leaves)
		assert.Len(t, f.Leaves.A, 4)
		assert.Len(t, f.Leaves.B, 4)
	}
	assert.Equal(t, []float64{1, 2, 3, 4}, frames[2].Leaves.A)
	assert.Equal(t, []float64{5, 6, 7, 8}, frames[2].Leaves.B)
}

func TestDecode_full_frame_banks_reproduce_flat_array(t *testing.T) {
	out, err := DecodeReader(scenarioPlan())
	require.NoError(t, err)
	leaves := out.Plan.Beams[0].Frames[0].Leaves
	require.NotNil(t, leaves)
	assert.Equal(t, out.Plan.LeafCount/2, len(leaves.A))
	assert.Equal(t, len(leaves.A), len(leaves.B))
	assert.Equal(t, leaves8, leaves.Flat())
}

func TestDecode_frame_counts_match_declared_counts(t *testing.T) {
	ds := buildPlan(
		[]controlPoint{cp(jawX, jawY, mlc(leaves8...)), cp(mlc(leaves8...))},
		[]controlPoint{cp(jawX, jawY, mlc(leaves8...)), cp(), cp(mlc(leaves8...)), cp(jawX)},
		[]controlPoint{},
	)
	out, err := DecodeReader(ds)
	require.NoError(t, err)

	nav := NewNavigator(ds)
	declared := 0
	for b := 0; b < 3; b++ {
		n, err := nav.ControlPointCount(b)
		require.NoError(t, err)
		declared += n
		assert.Len(t, out.Plan.Beams[b].Frames, n)
	}
	assert.Equal(t, declared, out.Plan.ControlPointTotal())
	assert.Empty(t, out.Plan.Beams[2].Frames)
	assert.NotNil(t, out.Plan.Beams[2].Frames)
}

func TestDecode_unsupported_shape(t *testing.T) {
	ds := buildPlan([]controlPoint{
		cp(jawX, jawY, mlc(leaves8...)),
		cp(jawX, mlc(leaves8...)),
		cp(mlc(leaves8...)),
	})
	out, err := DecodeReader(ds)
	require.NoError(t, err)
	assert.False(t, out.Complete())

	require.Len(t, out.Warnings, 1)
	w := out.Warnings[0]
	assert.Equal(t, 0, w.Beam)
	assert.Equal(t, 1, w.ControlPoint)
	assert.ErrorIs(t, w, ErrUnsupportedShape)
	assert.Equal(t, "unsupported_shape", w.Code())

	frames := out.Plan.Beams[0].Frames
	require.Len(t, frames, 3)
	assert.Equal(t, ShapeUnsupported, frames[1].Shape)
	assert.Nil(t, frames[1].Jaws)
	assert.Nil(t, frames[1].Leaves)
	assert.NotNil(t, frames[2].Leaves)
}

func TestDecode_leaf_count_rejected(t *testing.T) {
	t.Run("odd", func(t *testing.T) {
		ds := buildPlan([]controlPoint{cp(jawX, jawY, mlc(1, 2, 3, 4, 5, 6, 7))})
		out, err := DecodeReader(ds)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("zero", func(t *testing.T) {
		ds := buildPlan([]controlPoint{cp(jawX, jawY, mlc())})
		_, err := DecodeReader(ds)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("first_beam_without_control_points", func(t *testing.T) {
		ds := buildPlan([]controlPoint{}, []controlPoint{cp(jawX, jawY, mlc(leaves8...))})
		_, err := DecodeReader(ds)
		assert.ErrorIs(t, err, ErrMissingField)
	})
}

func TestDecode_required_fields(t *testing.T) {
	t.Run("no_beam_count", func(t *testing.T) {
		ds := scenarioPlan()
		ds.SetSequence(TagFractionGroupSequence, tagtree.NewDataset())
		_, err := DecodeReader(ds)
		assert.ErrorIs(t, err, ErrMissingField)
	})

	t.Run("no_control_point_count", func(t *testing.T) {
		ds := buildPlan(
			[]controlPoint{cp(jawX, jawY, mlc(leaves8...))},
			[]controlPoint{cp(jawX, jawY, mlc(leaves8...))},
		)
		beamItem(ds, 1).Set(TagNumberOfControlPoints, "IS")
		_, err := DecodeReader(ds)
		require.ErrorIs(t, err, ErrMissingField)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 1, fe.Beam)
		assert.Equal(t, "NumberOfControlPoints", fe.Field)
	})

	t.Run("declared_beams_exceed_items", func(t *testing.T) {
		ds := scenarioPlan()
		ds.SetSequence(TagFractionGroupSequence, tagtree.NewDataset().
			Set(TagNumberOfBeams, "IS", tagtree.Number(2)))
		_, err := DecodeReader(ds)
		require.ErrorIs(t, err, ErrShapeMismatch)
		var fe *FieldError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, "NumberOfBeams", fe.Field)
	})

	t.Run("non_integer_beam_count", func(t *testing.T) {
		ds := scenarioPlan()
		ds.SetSequence(TagFractionGroupSequence, tagtree.NewDataset().
			Set(TagNumberOfBeams, "IS", tagtree.Text("abc")))
		_, err := DecodeReader(ds)
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.NotErrorIs(t, err, ErrMissingField)
	})
}

func TestDecode_oversized_declared_counts(t *testing.T) {
	t.Run("beams", func(t *testing.T) {
		ds := scenarioPlan()
		ds.SetSequence(TagFractionGroupSequence, tagtree.NewDataset().
			Set(TagNumberOfBeams, "IS", tagtree.Number(1<<40)))
		out, err := DecodeReader(ds)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("control_points", func(t *testing.T) {
		ds := scenarioPlan()
		beamItem(ds, 0).Set(TagNumberOfControlPoints, "IS", tagtree.Number(1<<40))
		out, err := DecodeReader(ds)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})
}

func TestDecode_no_beams(t *testing.T) {
	ds := buildPlan()
	out, err := DecodeReader(ds)
	require.NoError(t, err)
	assert.Empty(t, out.Plan.Beams)
	assert.Zero(t, out.Plan.LeafCount)
}

func TestDecode_empty_and_absent_frames(t *testing.T) {
	ds := buildPlan([]controlPoint{
		cp(jawX, jawY, mlc(leaves8...)),
		cp(),
		cpWithoutDevices(),
	})
	out, err := DecodeReader(ds)
	require.NoError(t, err)

	frames := out.Plan.Beams[0].Frames
	assert.Equal(t, ShapeEmpty, frames[1].Shape)
	assert.Nil(t, frames[1].Leaves)
	assert.Equal(t, ShapeAbsent, frames[2].Shape)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, 2, out.Warnings[0].ControlPoint)
	assert.Equal(t, "missing_field", out.Warnings[0].Code())
}

func TestDecode_declared_control_points_exceed_items(t *testing.T) {
	ds := buildPlan(
		[]controlPoint{cp(jawX, jawY, mlc(leaves8...))},
		[]controlPoint{cp(jawX, jawY, mlc(leaves8...)), cp(mlc(leaves8...))},
	)
	beamItem(ds, 1).Set(TagNumberOfControlPoints, "IS", tagtree.Number(3))
	out, err := DecodeReader(ds)
	assert.Nil(t, out)
	require.ErrorIs(t, err, ErrShapeMismatch)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "NumberOfControlPoints", fe.Field)
	assert.Equal(t, 1, fe.Beam)
}

func TestDecode_declared_control_points_below_items(t *testing.T) {
	ds := scenarioPlan()
	beamItem(ds, 0).Set(TagNumberOfControlPoints, "IS", tagtree.Number(2))
	out, err := DecodeReader(ds)
	require.NoError(t, err)
	assert.Len(t, out.Plan.Beams[0].Frames, 2)
}

func TestDecode_malformed_beam_number_warns(t *testing.T) {
	ds := scenarioPlan()
	beamItem(ds, 0).Set(TagBeamNumber, "IS", tagtree.Number(1.5))
	out, err := DecodeReader(ds)
	require.NoError(t, err)

	assert.Nil(t, out.Plan.Beams[0].Number)
	require.Len(t, out.Warnings, 1)
	w := out.Warnings[0]
	assert.Equal(t, -1, w.ControlPoint)
	assert.ErrorIs(t, w, ErrInvalidValue)
	assert.Equal(t, "invalid_value", w.Code())

	// Without a usable number the dose is matched by position.
	require.NotNil(t, out.Plan.Beams[0].Dose)
	assert.Equal(t, 1.0, *out.Plan.Beams[0].Dose)
}

func TestDecode_single_device_identification(t *testing.T) {
	first := cp(jawX, jawY, mlc(leaves8...))

	t.Run("declared_jaw", func(t *testing.T) {
		out, err := DecodeReader(buildPlan([]controlPoint{first, cp(dev("ASYMY", -20, 25))}))
		require.NoError(t, err)
		assert.True(t, out.Complete())
		f := out.Plan.Beams[0].Frames[1]
		y, ok := f.Jaw(AxisY)
		require.True(t, ok)
		assert.Equal(t, -20.0, y.Near)
		assert.Equal(t, 25.0, y.Far)
		_, ok = f.Jaw(AxisX)
		assert.False(t, ok)
		assert.Nil(t, f.Leaves)
	})

	t.Run("undeclared_jaw", func(t *testing.T) {
		out, err := DecodeReader(buildPlan([]controlPoint{first, cp(dev("", -20, 25))}))
		require.NoError(t, err)
		f := out.Plan.Beams[0].Frames[1]
		require.Len(t, f.Jaws, 1)
		assert.Equal(t, AxisUnknown, f.Jaws[0].Axis)
		require.Len(t, out.Warnings, 1)
		assert.ErrorIs(t, out.Warnings[0], ErrAmbiguousDevice)
	})

	t.Run("undeclared_unknown_length", func(t *testing.T) {
		out, err := DecodeReader(buildPlan([]controlPoint{first, cp(dev("", 1, 2, 3))}))
		require.NoError(t, err)
		f := out.Plan.Beams[0].Frames[1]
		assert.Nil(t, f.Jaws)
		assert.Nil(t, f.Leaves)
		require.Len(t, out.Warnings, 1)
		assert.Equal(t, "ambiguous_device", out.Warnings[0].Code())
	})

	t.Run("declared_mlc_wrong_length", func(t *testing.T) {
		out, err := DecodeReader(buildPlan([]controlPoint{first, cp(mlc(1, 2, 3, 4))}))
		require.NoError(t, err)
		assert.Nil(t, out.Plan.Beams[0].Frames[1].Leaves)
		require.Len(t, out.Warnings, 1)
		assert.ErrorIs(t, out.Warnings[0], ErrShapeMismatch)
	})

	t.Run("two_leaves_and_two_values", func(t *testing.T) {
		out, err := DecodeReader(buildPlan([]controlPoint{
			cp(jawX, jawY, mlc(-1, 1)),
			cp(dev("", -2, 2)),
		}))
		require.NoError(t, err)
		f := out.Plan.Beams[0].Frames[1]
		assert.Nil(t, f.Jaws)
		assert.Nil(t, f.Leaves)
		require.Len(t, out.Warnings, 1)
		assert.ErrorIs(t, out.Warnings[0], ErrAmbiguousDevice)
	})
}

func TestDecode_full_frame_type_contradicts_slot(t *testing.T) {
	ds := buildPlan([]controlPoint{
		cp(jawX, jawY, mlc(leaves8...)),
		cp(mlc(leaves8...), jawY, jawX),
	})
	out, err := DecodeReader(ds)
	require.NoError(t, err)

	f := out.Plan.Beams[0].Frames[1]
	assert.Equal(t, ShapeFull, f.Shape)
	assert.Nil(t, f.Jaws)
	assert.Nil(t, f.Leaves)
	require.Len(t, out.Warnings, 1)
	assert.ErrorIs(t, out.Warnings[0], ErrAmbiguousDevice)
}

func TestDecode_beam_metadata(t *testing.T) {
	ds := buildPlan(
		[]controlPoint{cp(jawX, jawY, mlc(leaves8...)), cp(mlc(leaves8...))},
		[]controlPoint{cp(jawX, jawY, mlc(leaves8...))},
	)
	out, err := DecodeReader(ds)
	require.NoError(t, err)

	b := out.Plan.Beams[1]
	require.NotNil(t, b.Number)
	assert.Equal(t, 2, *b.Number)
	assert.Equal(t, "Beam 2", b.Name)
	require.NotNil(t, b.Dose)
	assert.Equal(t, 2.0, *b.Dose)

	total, ok := out.Plan.TotalDose()
	require.True(t, ok)
	assert.Equal(t, 3.0, total)

	angle := out.Plan.Beams[0].Frames[1].GantryAngle
	require.NotNil(t, angle)
	assert.Equal(t, 10.0, *angle)
}

func TestDecode_beams_without_optional_metadata(t *testing.T) {
	ds := scenarioPlan()
	item := beamItem(ds, 0)
	item.Set(TagBeamName, "LO")
	item.Set(TagBeamNumber, "IS")
	ds.SetSequence(TagFractionGroupSequence, tagtree.NewDataset().
		Set(TagNumberOfBeams, "IS", tagtree.Number(1)))

	out, err := DecodeReader(ds)
	require.NoError(t, err)
	assert.True(t, out.Complete(), "warnings: %v", out.Warnings)
	b := out.Plan.Beams[0]
	assert.Nil(t, b.Number)
	assert.Nil(t, b.Dose)
	assert.Empty(t, b.Name)
	_, ok := out.Plan.TotalDose()
	assert.False(t, ok)
}
