package plans

import (
	"time"

	"rtplan-service/internal/rtplan"
)

// PlanID uniquely identifies a decoded plan.
type PlanID string

// WarningRecord is the stored form of an rtplan.Warning.
// ControlPoint is -1 for beam-level warnings.
type WarningRecord struct {
	Beam         int    `json:"beam"`
	ControlPoint int    `json:"control_point"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// StoredPlan is a decoded plan together with how and when it was decoded.
type StoredPlan struct {
	ID        PlanID          `json:"id"`
	Source    string          `json:"source,omitempty"`
	DecodedAt time.Time       `json:"decoded_at"`
	Plan      rtplan.Plan     `json:"plan"`
	Warnings  []WarningRecord `json:"warnings,omitempty"`
}

// Complete reports whether the plan decoded without warnings.
func (p *StoredPlan) Complete() bool {
	return len(p.Warnings) == 0
}

// PlanSummary is the listing view of a stored plan.
type PlanSummary struct {
	ID            PlanID    `json:"id"`
	Source        string    `json:"source,omitempty"`
	DecodedAt     time.Time `json:"decoded_at"`
	Beams         int       `json:"beams"`
	ControlPoints int       `json:"control_points"`
	LeafCount     int       `json:"leaf_count"`
	TotalDose     *float64  `json:"total_dose,omitempty"`
	Warnings      int       `json:"warnings"`
}

// Summary returns the listing view of p.
func (p *StoredPlan) Summary() PlanSummary {
	s := PlanSummary{
		ID:            p.ID,
		Source:        p.Source,
		DecodedAt:     p.DecodedAt,
		Beams:         len(p.Plan.Beams),
		ControlPoints: p.Plan.ControlPointTotal(),
		LeafCount:     p.Plan.LeafCount,
		Warnings:      len(p.Warnings),
	}
	if total, ok := p.Plan.TotalDose(); ok {
		s.TotalDose = &total
	}
	return s
}

func warningRecords(ws []rtplan.Warning) []WarningRecord {
	if len(ws) == 0 {
		return nil
	}
	out := make([]WarningRecord, 0, len(ws))
	for _, w := range ws {
		out = append(out, WarningRecord{
			Beam:         w.Beam,
			ControlPoint: w.ControlPoint,
			Code:         w.Code(),
			Message:      w.Err.Error(),
		})
	}
	return out
}
