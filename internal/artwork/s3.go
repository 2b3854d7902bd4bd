package artwork

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pokeguess/internal/pokemon"
)

// ObjectStore is the subset of *s3.Client the mirror uses.
type ObjectStore interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes an S3-compatible bucket (AWS, R2, MinIO).
type S3Config struct {
	Bucket          string
	Endpoint        string // empty → AWS default
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string // object key prefix, e.g. "artwork/"
}

// S3Mirror copies official artwork into a bucket, keyed by species id.
type S3Mirror struct {
	store  ObjectStore
	bucket string
	prefix string
	http   *http.Client
	done   seen
}

// NewS3Client builds an S3 client from static credentials, or the default
// credential chain when no keys are given.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	region := c.Region
	if region == "" {
		region = "auto"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if c.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3Mirror(store ObjectStore, bucket, prefix string) *S3Mirror {
	if prefix == "" {
		prefix = "artwork/"
	}
	return &S3Mirror{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		http:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Key is the object key for a species.
func (m *S3Mirror) Key(id int) string {
	return m.prefix + strconv.Itoa(id) + ".png"
}

func (m *S3Mirror) Prefetch(ctx context.Context, rec pokemon.Record) error {
	if rec.ID <= 0 || rec.SpriteURL == "" || m.done.has(rec.ID) {
		return nil
	}
	key := m.Key(rec.ID)

	_, err := m.store.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		m.done.add(rec.ID)
		return nil
	}
	var nf *types.NotFound
	if !errors.As(err, &nf) {
		return fmt.Errorf("head %s: %w", key, err)
	}

	body, err := fetch(ctx, m.http, rec.SpriteURL)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return fmt.Errorf("read %s: %w", rec.SpriteURL, err)
	}

	_, err = m.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	m.done.add(rec.ID)
	log.Debug().Int("species", rec.ID).Str("key", key).Msg("artwork mirrored")
	return nil
}
