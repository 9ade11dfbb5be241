package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"rtplan-service/internal/rtplan"
	"rtplan-service/internal/tagtree"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type inspectOptions struct {
	format  string
	workers int
}

type beamReport struct {
	Index         int      `json:"index" yaml:"index"`
	Number        *int     `json:"number,omitempty" yaml:"number,omitempty"`
	Name          string   `json:"name,omitempty" yaml:"name,omitempty"`
	Dose          *float64 `json:"dose,omitempty" yaml:"dose,omitempty"`
	ControlPoints int      `json:"control_points" yaml:"control_points"`
}

type warningReport struct {
	Beam         int    `json:"beam" yaml:"beam"`
	ControlPoint int    `json:"control_point" yaml:"control_point"`
	Code         string `json:"code" yaml:"code"`
	Message      string `json:"message" yaml:"message"`
}

type fileReport struct {
	File          string          `json:"file" yaml:"file"`
	Error         string          `json:"error,omitempty" yaml:"error,omitempty"`
	LeafCount     int             `json:"leaf_count" yaml:"leaf_count"`
	ControlPoints int             `json:"control_points" yaml:"control_points"`
	TotalDose     *float64        `json:"total_dose,omitempty" yaml:"total_dose,omitempty"`
	Complete      bool            `json:"complete" yaml:"complete"`
	Beams         []beamReport    `json:"beams,omitempty" yaml:"beams,omitempty"`
	Warnings      []warningReport `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newInspectCmd(root *rootOptions) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Summarise beams and decode warnings of one or more plans",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, root.newLogger(cmd), opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "yaml", "Output format: yaml or json")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "Number of files decoded concurrently")
	return cmd
}

func runInspect(cmd *cobra.Command, log *slog.Logger, opts *inspectOptions, files []string) error {
	if opts.format != "yaml" && opts.format != "json" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	if opts.workers < 1 {
		opts.workers = 1
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	reports := make([]fileReport, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = inspectFile(file)
			if reports[i].Error != "" {
				log.Error("decode failed", "file", file, "error", reports[i].Error)
			} else {
				log.Debug("decoded", "file", file, "warnings", len(reports[i].Warnings))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeReports(cmd.OutOrStdout(), opts.format, reports); err != nil {
		return err
	}
	failed := 0
	for _, r := range reports {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d plans could not be decoded", failed, len(files))
	}
	return nil
}

func inspectFile(file string) fileReport {
	rep := fileReport{File: file}
	r, err := tagtree.Open(file)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}
	decoded, err := rtplan.DecodeReader(r)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}

	p := decoded.Plan
	rep.LeafCount = p.LeafCount
	rep.ControlPoints = p.ControlPointTotal()
	rep.Complete = decoded.Complete()
	if total, ok := p.TotalDose(); ok {
		rep.TotalDose = &total
	}
	for _, b := range p.Beams {
		rep.Beams = append(rep.Beams, beamReport{
			Index:         b.Index,
			Number:        b.Number,
			Name:          b.Name,
			Dose:          b.Dose,
			ControlPoints: len(b.Frames),
		})
	}
	for _, w := range decoded.Warnings {
		rep.Warnings = append(rep.Warnings, warningReport{
			Beam:         w.Beam,
			ControlPoint: w.ControlPoint,
			Code:         w.Code(),
			Message:      w.Err.Error(),
		})
	}
	return rep
}

func writeReports(w io.Writer, format string, reports []fileReport) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return err
	}
	return enc.Close()
}
