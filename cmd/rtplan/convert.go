package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"rtplan-service/internal/plans"
	"rtplan-service/internal/rtplan"
	"rtplan-service/internal/tagtree"

	"github.com/spf13/cobra"
)

type convertOptions struct {
	file        string
	outputDir   string
	beams       int
	cps         int
	fieldCentre bool
	particles   int
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write one plan sheet per control point",
		Long: `Decodes an RT Plan and writes <name>_beam<i>_cp<j>.dat for every control point.
Positions a control point does not declare are carried forward from earlier
control points of the same beam.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, root.newLogger(cmd), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "RT Plan file (.dcm or .json)")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for the sheet files")
	f.IntVarP(&opts.beams, "beams", "b", 0, "Number of beams to convert (0 converts all)")
	f.IntVarP(&opts.cps, "control-points", "c", 0, "Number of control points per beam (0 converts all)")
	f.BoolVar(&opts.fieldCentre, "field-centre", false, "Centre the leaf banks on the open aperture")
	f.IntVar(&opts.particles, "particles", plans.DefaultParticles, "Particle count written to each sheet header")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("output-dir")
	return cmd
}

func runConvert(cmd *cobra.Command, log *slog.Logger, opts *convertOptions) error {
	if opts.beams < 0 || opts.cps < 0 {
		return errors.New("beam and control point limits must not be negative")
	}
	r, err := tagtree.Open(opts.file)
	if err != nil {
		return err
	}
	decoded, err := rtplan.DecodeReader(r)
	if err != nil {
		return fmt.Errorf("decode %s: %w", opts.file, err)
	}
	for _, w := range decoded.Warnings {
		log.Warn("decode warning", "beam", w.Beam, "control_point", w.ControlPoint, "code", w.Code(), "error", w.Err)
	}
	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(opts.file), filepath.Ext(opts.file))
	written, skipped := 0, 0
	for _, beam := range limit(decoded.Plan.Beams, opts.beams) {
		for _, frame := range limit(beam.Frames, opts.cps) {
			sf, err := plans.ResolveFrame(beam, frame.Index)
			if err != nil {
				return err
			}
			if opts.fieldCentre && sf.Leaves != nil {
				centred := plans.CentreBanks(*sf.Leaves)
				sf.Leaves = &centred
			}
			sheet, err := plans.BuildSheet(sf, opts.particles)
			if errors.Is(err, plans.ErrIncompleteFrame) {
				log.Warn("sheet skipped", "beam", beam.Index, "control_point", frame.Index, "error", err)
				skipped++
				continue
			}
			if err != nil {
				return err
			}
			path := filepath.Join(opts.outputDir, plans.SheetFileName(base, beam.Index, frame.Index))
			if err := os.WriteFile(path, []byte(sheet), 0o644); err != nil {
				return fmt.Errorf("write sheet: %w", err)
			}
			log.Debug("sheet written", "path", path)
			written++
		}
	}

	log.Info("conversion finished", "file", opts.file, "sheets", written, "skipped", skipped, "warnings", len(decoded.Warnings))
	fmt.Fprintf(cmd.OutOrStdout(), "%d sheets written to %s\n", written, opts.outputDir)
	return nil
}

// limit returns the first n elements of s, or all of s when n is 0.
func limit[T any](s []T, n int) []T {
	if n > 0 && n < len(s) {
		return s[:n]
	}
	return s
}
