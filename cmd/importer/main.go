// The importer command loads a curated export bundle into the database.
//
//	importer -dir ./export                      import a local bundle
//	importer -bucket exports -prefix show-42    import a bundle from S3
//	importer -dir ./export -dry-run             validate without writing
//
// The exit code is non-zero only for structural failures (unreadable
// bundle, invalid manifest, database errors). Skipped records are listed
// in the printed report and do not fail the run.
//
// Pending schema migrations are applied even on a dry run: the dry run
// executes the real pipeline inside a rolled-back transaction, which needs
// the tables to exist. Content is never written on a dry run; schema may be.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/plotweave/backend/internal/storage"
	"github.com/plotweave/backend/internal/util"
	"github.com/plotweave/backend/pkg/bundle"
	"github.com/plotweave/backend/pkg/importer"
	"github.com/plotweave/backend/pkg/logger"
	"github.com/plotweave/backend/pkg/logger/console"
	pgxstore "github.com/plotweave/backend/pkg/store/pgx"
)

func main() {
	util.LoadEnv()

	dir := flag.String("dir", "", "path to a local bundle directory")
	bucket := flag.String("bucket", "", "S3 bucket holding the bundle")
	prefix := flag.String("prefix", "", "S3 key prefix of the bundle")
	dryRun := flag.Bool("dry-run", false, "run the full pipeline but roll back instead of committing")
	flag.Parse()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var loader bundle.BundleLoader
	switch {
	case *dir != "" && *bucket != "":
		logger.Fatal("Pass either -dir or -bucket, not both")
	case *dir != "":
		loader = bundle.NewDirBundleLoader(*dir)
	case *bucket != "":
		if *prefix == "" {
			logger.Fatal("-bucket requires -prefix")
		}
		loader = bundle.NewS3BundleLoader(bundle.NewS3BundleLoaderParams{
			Bucket: *bucket,
			Prefix: *prefix,
			Client: storage.NewS3Client(ctx),
		})
	default:
		logger.Fatal("Pass -dir or -bucket/-prefix to select a bundle")
	}

	b, err := bundle.Load(ctx, loader)
	if err != nil {
		logger.Fatal("Bundle rejected", "err", err)
	}

	pgConn, err := storage.NewPGPool(ctx)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	if err := storage.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}

	imp := importer.NewImporter(importer.NewImporterParams{
		Store:  pgxstore.NewNarrativeDBStore(pgConn),
		DryRun: *dryRun,
	})

	report, err := imp.Run(ctx, b)
	if err != nil {
		logger.Fatal("Import aborted", "err", err)
	}

	fmt.Print(report.Summary())

	if report.HasErrors() {
		logger.Warn("Import completed with skipped records", "count", len(report.Errors))
	}
}
