package stages

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomasbasham/invoice-smoke/internal/config"
	"github.com/tomasbasham/invoice-smoke/internal/notify"
	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
	"github.com/tomasbasham/invoice-smoke/internal/storage"
)

const (
	// defaultLandingFolder is the destination prefix used when the upload
	// stage has no folder configured.
	defaultLandingFolder = "landing"

	// notificationTopic is where the ingestion pipeline listens for new
	// invoices.
	notificationTopic = "invoice-uploaded"
)

// UploadStage uploads the generated TIFF invoice to the environment's GCS
// landing bucket.
//
// The stage:
//  1. Connects to GCS through the injected factory
//  2. Uploads the TIFF to the landing folder
//  3. Stores the GCS object path in the context for downstream stages
//  4. Best-effort publishes an upload notification
type UploadStage struct {
	// Config supplies environment and stage settings.
	Config *config.Config

	// Storage produces the uploader. A nil Storage means GCS support is not
	// available and the stage fails cleanly before any network activity.
	Storage storage.Factory

	// Notifier produces the publisher for the upload notification. A nil
	// Notifier disables notifications; it never fails the stage.
	Notifier notify.Factory
}

func (s *UploadStage) Name() string { return "upload" }

// Run uploads the invoice at sc.TIFFPath to the landing bucket of the
// environment named by sc.Env.
//
// Precondition failures (no storage support, missing file, unknown
// environment) come back as a failed StageResult. Failures at the storage
// boundary itself come back as an error instead: the upload is what the
// smoke test exists to prove, so a broken bucket or credential must abort
// the run loudly rather than read as an ordinary failed check.
func (s *UploadStage) Run(ctx context.Context, sc *pipeline.Context) (pipeline.StageResult, error) {
	if s.Storage == nil {
		return pipeline.Fail(s.Name(),
			"GCS support is not configured: install gcloud application default credentials and wire a storage factory"), nil
	}

	if sc.TIFFPath == "" {
		return pipeline.Fail(s.Name(), "TIFF file not found: (none generated)"), nil
	}
	if _, err := os.Stat(sc.TIFFPath); err != nil {
		return pipeline.Fail(s.Name(), fmt.Sprintf("TIFF file not found: %s", sc.TIFFPath)), nil
	}

	env, ok := s.Config.Environment(sc.Env)
	if !ok {
		return pipeline.Fail(s.Name(), fmt.Sprintf("unknown environment: %s", sc.Env)), nil
	}

	folder := s.Config.Stage(s.Name()).Folder
	if folder == "" {
		folder = defaultLandingFolder
	}
	objectName := fmt.Sprintf("%s/%s", folder, filepath.Base(sc.TIFFPath))

	uploader, err := s.Storage(ctx, env.Project)
	if err != nil {
		return pipeline.StageResult{}, fmt.Errorf("stages: failed to create uploader for project %q: %w", env.Project, err)
	}

	f, err := os.Open(sc.TIFFPath)
	if err != nil {
		return pipeline.StageResult{}, fmt.Errorf("stages: failed to open %q: %w", sc.TIFFPath, err)
	}
	defer f.Close()

	result, err := uploader.Upload(ctx, &storage.UploadRequest{
		Bucket:      env.Bucket,
		ObjectName:  objectName,
		Content:     f,
		ContentType: "image/tiff",
	})
	if err != nil {
		return pipeline.StageResult{}, err
	}

	sc.GCSObjectPath = result.URI

	s.publishNotification(ctx, env.Project, result.Bucket, result.ObjectName)

	return pipeline.StageResult{
		StageName: s.Name(),
		Passed:    true,
		Data: map[string]string{
			"bucket":  result.Bucket,
			"blob":    result.ObjectName,
			"gcs_uri": result.URI,
		},
	}, nil
}

// publishNotification tells the ingestion pipeline about the new object.
// Fire and forget: the invoice is already durably uploaded, so a lost
// notification must not fail the stage. Every error below is discarded.
func (s *UploadStage) publishNotification(ctx context.Context, project, bucket, objectName string) {
	if s.Notifier == nil {
		return
	}

	publisher, err := s.Notifier(ctx, project)
	if err != nil {
		return
	}

	data, err := json.Marshal(notify.ObjectUploaded{Bucket: bucket, Name: objectName})
	if err != nil {
		return
	}

	_ = publisher.Publish(ctx, notificationTopic, data)
}
