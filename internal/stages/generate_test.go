package stages

import (
	"context"
	"os"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

func TestGenerateWritesDecodableTIFF(t *testing.T) {
	stage := &GenerateStage{}
	sc := &pipeline.Context{WorkDir: t.TempDir()}

	result, err := stage.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected passed result, got error %q", result.Error)
	}
	if sc.TIFFPath == "" {
		t.Fatal("context TIFF path not set")
	}
	if result.Data["tiff_path"] != sc.TIFFPath {
		t.Fatalf("data tiff_path %q does not match context %q", result.Data["tiff_path"], sc.TIFFPath)
	}
	if !strings.HasSuffix(sc.TIFFPath, ".tiff") {
		t.Fatalf("unexpected artefact name: %q", sc.TIFFPath)
	}

	f, err := os.Open(sc.TIFFPath)
	if err != nil {
		t.Fatalf("open artefact: %v", err)
	}
	defer f.Close()

	img, err := tiff.Decode(f)
	if err != nil {
		t.Fatalf("artefact is not a valid TIFF: %v", err)
	}
	if img.Bounds().Empty() {
		t.Fatal("artefact image is empty")
	}
}

func TestGenerateCreatesWorkDirWhenUnset(t *testing.T) {
	stage := &GenerateStage{}
	sc := &pipeline.Context{}

	if _, err := stage.Run(context.Background(), sc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sc.WorkDir == "" {
		t.Fatal("work dir not recorded on context")
	}
	t.Cleanup(func() { os.RemoveAll(sc.WorkDir) })

	if _, err := os.Stat(sc.TIFFPath); err != nil {
		t.Fatalf("artefact missing: %v", err)
	}
}
