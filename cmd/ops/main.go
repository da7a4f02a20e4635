// Command ops runs maintenance tasks against a timereport deployment.
//
//	ops backup [-c config.yaml] [-data dir] [-b bucket] [-e endpoint]
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/timereport/internal/flagx"
	"github.com/dmitrijs2005/timereport/internal/logging"
	"github.com/dmitrijs2005/timereport/internal/server/backup"
	"github.com/dmitrijs2005/timereport/internal/server/config"
	"github.com/dmitrijs2005/timereport/internal/server/userstore"
)

var valuedFlags = []string{"-c", "-config", "-a", "-g", "-d", "-dsn", "-data", "-s", "-rs", "-t", "-r", "-env", "-log", "-redis", "-b", "-e"}

func main() {
	args := os.Args[1:]
	pos := flagx.Positional(args, valuedFlags)
	if len(pos) == 0 || pos[0] != "backup" {
		fmt.Fprintln(os.Stderr, "usage: ops backup [flags]")
		os.Exit(2)
	}

	if err := runBackup(args); err != nil {
		log.Printf("backup: %v", err)
		os.Exit(1)
	}
}

func runBackup(args []string) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, flush, err := logging.New(cfg.LogBackend, cfg.IsProduction(), os.Stdout)
	if err != nil {
		return err
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := backup.NewS3Client(ctx, backup.S3Config{
		Region:       cfg.S3Region,
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return err
	}

	stores := userstore.NewRegistry(cfg.DataDir, cfg.StoreProvisionTimeout, logger)
	defer stores.Close()

	report, err := backup.NewBackuper(stores, client, cfg.S3Bucket, logger).Run(ctx)
	if report != nil {
		logger.Info(ctx, "backup finished", "uploaded", len(report.Uploaded), "failed", len(report.Failed))
	}
	return err
}
