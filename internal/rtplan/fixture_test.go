package rtplan

import "rtplan-service/internal/tagtree"

type device struct {
	typ  string
	vals []float64
}

func dev(typ string, vals ...float64) device {
	return device{typ: typ, vals: vals}
}

// controlPoint describes one control point item. A nil devices slice omits
// the device position sequence entirely; an empty one stores it empty.
type controlPoint struct {
	devices []device
}

func cp(devices ...device) controlPoint {
	if devices == nil {
		devices = []device{}
	}
	return controlPoint{devices: devices}
}

func cpWithoutDevices() controlPoint {
	return controlPoint{}
}

var (
	jawX    = dev("ASYMX", -50, 50)
	jawY    = dev("ASYMY", -30, 30)
	leaves8 = []float64{-10, -9, -8, -7, 10, 9, 8, 7}
)

func mlc(vals ...float64) device {
	return dev("MLCX", vals...)
}

// buildPlan returns a record with one beam per argument. Beam i is numbered
// i+1, named "Beam i+1", and gets a dose of i+1 Gy in the fraction group.
// Control point c declares a gantry angle of 10*c.
func buildPlan(beams ...[]controlPoint) *tagtree.Dataset {
	refs := make([]*tagtree.Dataset, 0, len(beams))
	items := make([]*tagtree.Dataset, 0, len(beams))
	for i, cps := range beams {
		refs = append(refs, tagtree.NewDataset().
			Set(TagReferencedBeamNumber, "IS", tagtree.Number(float64(i+1))).
			Set(TagBeamDose, "DS", tagtree.Number(float64(i+1))))

		cpItems := make([]*tagtree.Dataset, 0, len(cps))
		for c, point := range cps {
			item := tagtree.NewDataset().
				Set(TagGantryAngle, "DS", tagtree.Number(float64(10*c)))
			if point.devices != nil {
				devItems := make([]*tagtree.Dataset, 0, len(point.devices))
				for _, d := range point.devices {
					di := tagtree.NewDataset().Set(TagLeafJawPositions, "DS", tagtree.Numbers(d.vals...)...)
					if d.typ != "" {
						di.Set(TagDeviceType, "CS", tagtree.Text(d.typ))
					}
					devItems = append(devItems, di)
				}
				item.SetSequence(TagDevicePositionSequence, devItems...)
			}
			cpItems = append(cpItems, item)
		}

		items = append(items, tagtree.NewDataset().
			Set(TagBeamNumber, "IS", tagtree.Number(float64(i+1))).
			Set(TagBeamName, "LO", tagtree.Text(beamName(i))).
			Set(TagNumberOfControlPoints, "IS", tagtree.Number(float64(len(cps)))).
			SetSequence(TagControlPointSequence, cpItems...))
	}

	fraction := tagtree.NewDataset().
		Set(TagNumberOfBeams, "IS", tagtree.Number(float64(len(beams)))).
		SetSequence(TagReferencedBeamSequence, refs...)

	return tagtree.NewDataset().
		SetSequence(TagFractionGroupSequence, fraction).
		SetSequence(TagBeamSequence, items...)
}

func beamName(i int) string {
	return "Beam " + string(rune('1'+i))
}

// beamItem returns the dataset of beam i for in-place edits.
func beamItem(ds *tagtree.Dataset, i int) *tagtree.Dataset {
	e, _ := ds.Element(TagBeamSequence)
	return e.Items[i]
}

// scenarioPlan is one beam: a full first frame and two MLC-only frames.
func scenarioPlan() *tagtree.Dataset {
	return buildPlan([]controlPoint{
		cp(jawX, jawY, mlc(leaves8...)),
		cp(dev("", leaves8...)),
		cp(dev("", 1, 2, 3, 4, 5, 6, 7, 8)),
	})
}
