package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rtplan-service/internal/rtplan"
	"rtplan-service/internal/tagtree"
)

// ErrDecodeFailed wraps fatal decode errors: the record is not a usable plan.
var ErrDecodeFailed = errors.New("plan decode failed")

// Service decodes records into plans, keeps them in a Repository and renders
// per-control-point sheets from them.
type Service struct {
	repo      Repository
	particles int
	now       func() time.Time
}

// NewService returns a Service storing plans in repo. particles is written to
// every sheet header; if particles <= 0, DefaultParticles is used.
func NewService(repo Repository, particles int) *Service {
	if particles <= 0 {
		particles = DefaultParticles
	}
	return &Service{repo: repo, particles: particles, now: time.Now}
}

// Ingest decodes the record behind r and stores the result. Plans that decode
// with warnings are stored too; the warnings travel with them.
func (s *Service) Ingest(ctx context.Context, r tagtree.Reader, source string) (*StoredPlan, error) {
	decoded, err := rtplan.DecodeReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	p := &StoredPlan{
		ID:        PlanID(uuid.NewString()),
		Source:    source,
		DecodedAt: s.now().UTC(),
		Plan:      decoded.Plan,
		Warnings:  warningRecords(decoded.Warnings),
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a stored plan.
func (s *Service) Get(ctx context.Context, id PlanID) (*StoredPlan, error) {
	return s.repo.Get(ctx, id)
}

// List returns summaries of every stored plan, oldest first.
func (s *Service) List(ctx context.Context) ([]PlanSummary, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PlanSummary, 0, len(stored))
	for _, p := range stored {
		out = append(out, p.Summary())
	}
	return out, nil
}

// Delete removes a stored plan.
func (s *Service) Delete(ctx context.Context, id PlanID) error {
	return s.repo.Delete(ctx, id)
}

// PlanCount returns the number of stored plans.
func (s *Service) PlanCount(ctx context.Context) (int, error) {
	return s.repo.PlanCount(ctx)
}

// ControlPointSheet renders the sheet for one control point of a stored plan.
// Device positions absent at that control point are carried forward from
// earlier frames. With centre set the leaf banks are centred first.
func (s *Service) ControlPointSheet(ctx context.Context, id PlanID, beam, cp int, centre bool) (string, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if beam < 0 || beam >= len(p.Plan.Beams) {
		return "", fmt.Errorf("%w: plan has %d beams", ErrBeamNotFound, len(p.Plan.Beams))
	}
	frame, err := ResolveFrame(p.Plan.Beams[beam], cp)
	if err != nil {
		return "", err
	}
	if centre && frame.Leaves != nil {
		centred := CentreBanks(*frame.Leaves)
		frame.Leaves = &centred
	}
	return BuildSheet(frame, s.particles)
}
