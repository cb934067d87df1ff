package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plotweave/backend/internal/util"
	"github.com/plotweave/backend/pkg/bundle"
	"github.com/plotweave/backend/pkg/importer"
	"github.com/plotweave/backend/pkg/leaselock"
	"github.com/plotweave/backend/pkg/logger"
	pgxstore "github.com/plotweave/backend/pkg/store/pgx"
)

// ImportJob is the message published onto import_queue.
type ImportJob struct {
	CorrelationID string `json:"correlation_id"`
	Bucket        string `json:"bucket,omitempty"`
	Prefix        string `json:"prefix"`
	DryRun        bool   `json:"dry_run"`
}

// ProcessImportMessage handles one import job: fetch the bundle from S3,
// run the import pipeline under a lease lock, log the report. A returned
// error sends the message through the retry/DLQ cycle; malformed payloads
// are dropped instead, retrying cannot fix them.
func ProcessImportMessage(
	ctx context.Context,
	s3Client *s3.Client,
	locks *leaselock.Client,
	pgConn *pgxpool.Pool,
	body string,
) error {
	var job ImportJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		logger.Error("[Import] Dropping malformed job payload", "err", err)
		return nil
	}
	if job.Prefix == "" {
		logger.Error("[Import] Dropping job without bundle prefix", "correlation_id", job.CorrelationID)
		return nil
	}
	if job.Bucket == "" {
		job.Bucket = util.GetEnv("AWS_BUCKET")
	}

	logger.Info("[Import] Processing job",
		"correlation_id", job.CorrelationID,
		"bucket", job.Bucket,
		"prefix", job.Prefix,
		"dry_run", job.DryRun,
	)

	loader := bundle.NewS3BundleLoader(bundle.NewS3BundleLoaderParams{
		Bucket: job.Bucket,
		Prefix: job.Prefix,
		Client: s3Client,
	})

	b, err := util.RetryWithContext(ctx, 3, func(ctx context.Context) (*bundle.Bundle, error) {
		return bundle.Load(ctx, loader)
	})
	if err != nil {
		return fmt.Errorf("load bundle %s/%s: %w", job.Bucket, job.Prefix, err)
	}

	lockKey := "import:" + job.Prefix
	return locks.WithLease(ctx, lockKey, leaselock.Options{}, func(ctx context.Context) error {
		imp := importer.NewImporter(importer.NewImporterParams{
			Store:  pgxstore.NewNarrativeDBStore(pgConn),
			DryRun: job.DryRun,
		})

		report, err := imp.Run(ctx, b)
		if err != nil {
			return fmt.Errorf("import run: %w", err)
		}

		for _, recordErr := range report.Errors {
			logger.Warn("[Import] Skipped record",
				"correlation_id", job.CorrelationID,
				"entity", recordErr.Entity,
				"curation_uuid", recordErr.UUID,
				"reason", recordErr.Reason,
			)
		}
		for _, warning := range report.Warnings {
			logger.Warn("[Import] "+warning, "correlation_id", job.CorrelationID)
		}

		logger.Info("[Import] Job finished",
			"correlation_id", job.CorrelationID,
			"run_id", report.RunID,
			"created", report.TotalCreated(),
			"record_errors", len(report.Errors),
			"dry_run", report.DryRun,
		)
		return nil
	})
}
