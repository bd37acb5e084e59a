// Package stages holds the individual steps of the invoice smoke pipeline.
package stages

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/image/tiff"

	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

// GenerateStage renders a synthetic TIFF invoice into the run's work
// directory and records its path on the context. It is the upstream producer
// for the upload stage; the invoice content only needs to be a well-formed
// TIFF the ingestion pipeline will accept, not a realistic document.
type GenerateStage struct{}

func (s *GenerateStage) Name() string { return "generate" }

func (s *GenerateStage) Run(_ context.Context, sc *pipeline.Context) (pipeline.StageResult, error) {
	if sc.WorkDir == "" {
		dir, err := os.MkdirTemp("", "invoice-smoke-")
		if err != nil {
			return pipeline.StageResult{}, fmt.Errorf("stages: failed to create work directory: %w", err)
		}
		sc.WorkDir = dir
	}

	invoiceID := uuid.New().String()
	path := filepath.Join(sc.WorkDir, fmt.Sprintf("invoice_%s.tiff", invoiceID))

	f, err := os.Create(path)
	if err != nil {
		return pipeline.StageResult{}, fmt.Errorf("stages: failed to create %q: %w", path, err)
	}
	defer f.Close()

	if err := tiff.Encode(f, renderInvoice(), nil); err != nil {
		return pipeline.StageResult{}, fmt.Errorf("stages: failed to encode TIFF: %w", err)
	}
	if err := f.Close(); err != nil {
		return pipeline.StageResult{}, fmt.Errorf("stages: failed to finalise %q: %w", path, err)
	}

	sc.TIFFPath = path

	return pipeline.StageResult{
		StageName: s.Name(),
		Passed:    true,
		Data: map[string]string{
			"invoice_id": invoiceID,
			"tiff_path":  path,
		},
	}, nil
}

// renderInvoice draws a stand-in invoice page: a white A4-ish canvas with a
// dark header band and a rule where the line items would sit.
func renderInvoice() image.Image {
	const width, height = 620, 877

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	header := image.Rect(0, 0, width, 80)
	draw.Draw(img, header, image.NewUniform(color.RGBA{A: 0xff, R: 0x20, G: 0x20, B: 0x20}), image.Point{}, draw.Src)

	rule := image.Rect(40, 200, width-40, 204)
	draw.Draw(img, rule, image.NewUniform(color.Black), image.Point{}, draw.Src)

	return img
}
