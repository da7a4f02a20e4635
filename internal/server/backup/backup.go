// Package backup snapshots every per-identity store and uploads the copies to
// an S3-compatible bucket under backups/<yyyy-mm-dd>/<identityID>.db.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/timereport/internal/logging"
)

// S3Config describes the backup target. Empty keys fall back to the default
// AWS credential chain; an empty endpoint means AWS itself.
type S3Config struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
}

// Seams for tests.
var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// NewS3Client builds a client for cfg. A custom endpoint (MinIO and friends)
// switches to path-style addressing.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Uploader is satisfied by *s3.Client.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// StoreLister enumerates and opens per-identity stores.
type StoreLister interface {
	IdentityIDs() ([]string, error)
	Get(identityID string) (*sql.DB, error)
}

// Report summarizes a backup run.
type Report struct {
	Uploaded []string
	Failed   []string
}

type Backuper struct {
	stores   StoreLister
	uploader Uploader
	bucket   string
	log      logging.Logger
	now      func() time.Time
}

func NewBackuper(stores StoreLister, uploader Uploader, bucket string, log logging.Logger) *Backuper {
	return &Backuper{
		stores:   stores,
		uploader: uploader,
		bucket:   bucket,
		log:      log.With("module", "backup"),
		now:      time.Now,
	}
}

// ObjectKey is the bucket key of an identity's snapshot taken on day.
func ObjectKey(day time.Time, identityID string) string {
	return "backups/" + day.UTC().Format("2006-01-02") + "/" + identityID + ".db"
}

// Run backs up every store. A failing store does not stop the others; the
// returned error joins all failures.
func (b *Backuper) Run(ctx context.Context) (*Report, error) {
	ids, err := b.stores.IdentityIDs()
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	tmp, err := os.MkdirTemp("", "timereport-backup-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	day := b.now()
	report := &Report{}
	var errs []error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, errors.Join(append(errs, err)...)
		}

		key := ObjectKey(day, id)
		if err := b.backupOne(ctx, id, filepath.Join(tmp, id+".db"), key); err != nil {
			b.log.Error(ctx, "store backup failed", "identity_id", id, "error", err)
			report.Failed = append(report.Failed, id)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		b.log.Info(ctx, "store backed up", "identity_id", id, "key", key)
		report.Uploaded = append(report.Uploaded, id)
	}

	return report, errors.Join(errs...)
}

func (b *Backuper) backupOne(ctx context.Context, id, snapshot, key string) error {
	db, err := b.stores.Get(id)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "VACUUM INTO $1", snapshot); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	defer os.Remove(snapshot)

	f, err := os.Open(snapshot)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = b.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}
