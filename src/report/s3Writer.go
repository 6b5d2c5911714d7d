package report

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
)

// S3Writer uploads each report as a new object under
// <prefix>/<date>/<run id>.json[.gz].
type S3Writer struct {
	client s3iface.S3API
	bucket string
	prefix string
	gzip   bool
	now    func() time.Time
	newID  func() string

	lastKey string
}

func NewS3Writer(client s3iface.S3API, bucket, prefix string, gzipped bool) *S3Writer {
	return &S3Writer{
		client: client,
		bucket: bucket,
		prefix: prefix,
		gzip:   gzipped,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

func (w *S3Writer) Name() string { return "s3://" + w.bucket + "/" + w.prefix }

// LastKey is the object key of the most recent successful upload.
func (w *S3Writer) LastKey() string { return w.lastKey }

func (w *S3Writer) WriteDocument(ctx context.Context, doc []byte) error {
	key := path.Join(w.prefix, w.now().UTC().Format("2006-01-02"), w.newID()+".json")

	input := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		ContentType: aws.String("application/json"),
	}

	if w.gzip {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(doc); err != nil {
			return fmt.Errorf("gzip report: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("gzip report: %w", err)
		}
		key += ".gz"
		doc = buf.Bytes()
		input.ContentEncoding = aws.String("gzip")
	}

	input.Key = aws.String(key)
	input.Body = bytes.NewReader(doc)

	if _, err := w.client.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	w.lastKey = key
	return nil
}

var (
	_ DocumentWriter = (*S3Writer)(nil)
	_ DocumentWriter = (*FileWriter)(nil)
)
