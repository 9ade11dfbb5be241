package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"rtplan-service/internal/tagtree"

	"github.com/stretchr/testify/require"
)

type device struct {
	typ  string
	vals []float64
}

func dev(typ string, vals ...float64) device {
	return device{typ: typ, vals: vals}
}

var (
	jawX    = dev("ASYMX", -50, 50)
	jawY    = dev("ASYMY", -30, 30)
	leaves8 = []float64{-10, -9, -8, -7, 10, 9, 8, 7}
)

func element(vr string, values ...any) map[string]any {
	e := map[string]any{"vr": vr}
	if len(values) > 0 {
		e["Value"] = values
	}
	return e
}

func sequence(items ...map[string]any) map[string]any {
	vals := make([]any, 0, len(items))
	for _, it := range items {
		vals = append(vals, it)
	}
	return map[string]any{"vr": "SQ", "Value": vals}
}

// planJSON renders a record in the DICOM JSON model with one beam per
// argument. Each beam is a list of control points, each a list of devices.
// Control point c declares a gantry angle of 10*c; beam i is numbered i+1
// with a dose of i+1 Gy.
func planJSON(t *testing.T, beams ...[][]device) []byte {
	t.Helper()
	refs := make([]map[string]any, 0, len(beams))
	items := make([]map[string]any, 0, len(beams))
	for i, cps := range beams {
		refs = append(refs, map[string]any{
			"300C0006": element("IS", i+1),
			"300A0084": element("DS", float64(i+1)),
		})
		cpItems := make([]map[string]any, 0, len(cps))
		for c, devices := range cps {
			devItems := make([]map[string]any, 0, len(devices))
			for _, d := range devices {
				vals := make([]any, 0, len(d.vals))
				for _, v := range d.vals {
					vals = append(vals, v)
				}
				item := map[string]any{"300A011C": element("DS", vals...)}
				if d.typ != "" {
					item["300A00B8"] = element("CS", d.typ)
				}
				devItems = append(devItems, item)
			}
			cpItems = append(cpItems, map[string]any{
				"300A011E": element("DS", float64(10*c)),
				"300A011A": sequence(devItems...),
			})
		}
		items = append(items, map[string]any{
			"300A00C0": element("IS", i+1),
			"300A00C2": element("LO", "Field "+string(rune('A'+i))),
			"300A0110": element("IS", len(cps)),
			"300A0111": sequence(cpItems...),
		})
	}
	record := map[string]any{
		"300A0070": sequence(map[string]any{
			"300A0080": element("IS", len(beams)),
			"300C0004": sequence(refs...),
		}),
		"300A00B0": sequence(items...),
	}
	b, err := json.Marshal(record)
	require.NoError(t, err)
	return b
}

// scenarioJSON is one beam: a full first frame and two MLC-only frames.
func scenarioJSON(t *testing.T) []byte {
	return planJSON(t, [][]device{
		{jawX, jawY, dev("MLCX", leaves8...)},
		{dev("", leaves8...)},
		{dev("", 1, 2, 3, 4, 5, 6, 7, 8)},
	})
}

// warningJSON has a second control point with two device entries.
func warningJSON(t *testing.T) []byte {
	return planJSON(t, [][]device{
		{jawX, jawY, dev("MLCX", leaves8...)},
		{jawX, jawY},
	})
}

// oddLeavesJSON declares seven leaf values: not decodable.
func oddLeavesJSON(t *testing.T) []byte {
	return planJSON(t, [][]device{
		{jawX, jawY, dev("MLCX", 1, 2, 3, 4, 5, 6, 7)},
	})
}

func decodeRecord(t *testing.T, body []byte) *tagtree.Dataset {
	t.Helper()
	ds, err := tagtree.DecodeJSON(bytes.NewReader(body))
	require.NoError(t, err)
	return ds
}

func ingest(t *testing.T, svc *Service, body []byte) *StoredPlan {
	t.Helper()
	p, err := svc.Ingest(context.Background(), decodeRecord(t, body), "fixture")
	require.NoError(t, err)
	return p
}
