// Package storage provides access to the image store. Uploads happen in
// an upstream service; workers only fetch already-durable objects, by
// s3:// reference through the SDK or by plain URL.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/binsight/api/internal/config"
)

// Store fetches scan images from S3/MinIO or over HTTP.
type Store struct {
	cfg        config.StorageConfig
	client     *s3.Client
	presigner  *s3.PresignClient
	httpClient *http.Client
	scratchDir string
}

// NewStore creates a new image store.
func NewStore(ctx context.Context, cfg config.StorageConfig, fetchTimeout time.Duration, scratchDir string) (*Store, error) {
	var awsOpts []func(*awsconfig.LoadOptions) error
	awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.Region))

	switch cfg.AuthType {
	case "keys":
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	case "sts_role":
		baseCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		stsClient := sts.NewFromConfig(baseCfg)
		assumeOpts := func(o *stscreds.AssumeRoleOptions) {
			if cfg.ExternalID != "" {
				o.ExternalID = aws.String(cfg.ExternalID)
			}
		}
		creds := stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN, assumeOpts)
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(creds))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true // Required for MinIO
		})
	}
	client := s3.NewFromConfig(awsCfg, s3Opts...)

	if scratchDir == "" {
		scratchDir = os.TempDir()
	}

	return &Store{
		cfg:        cfg,
		client:     client,
		presigner:  s3.NewPresignClient(client),
		httpClient: &http.Client{Timeout: fetchTimeout},
		scratchDir: scratchDir,
	}, nil
}

// FetchToScratch downloads the referenced image to a scratch file and
// returns its path plus a release function. The release function must be
// called on every exit path; the estimator is only ever handed a fully
// flushed file.
func (s *Store) FetchToScratch(ctx context.Context, imageRef string) (string, func(), error) {
	body, err := s.open(ctx, imageRef)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	f, err := os.CreateTemp(s.scratchDir, "scan-*.img")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	release := func() { _ = os.Remove(f.Name()) }

	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		release()
		return "", nil, fmt.Errorf("failed to stream image to scratch: %w", err)
	}
	if err := f.Close(); err != nil {
		release()
		return "", nil, fmt.Errorf("failed to flush scratch file: %w", err)
	}

	return f.Name(), release, nil
}

func (s *Store) open(ctx context.Context, imageRef string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(imageRef, "s3://"):
		bucket, key, err := parseS3Ref(imageRef)
		if err != nil {
			return nil, err
		}
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get object %s: %w", imageRef, err)
		}
		return out.Body, nil

	case strings.HasPrefix(imageRef, "http://"), strings.HasPrefix(imageRef, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageRef, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid image url: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
		}
		return resp.Body, nil

	default:
		return nil, fmt.Errorf("unsupported image reference scheme: %q", imageRef)
	}
}

// PresignGet returns a time-limited URL for an object in the configured
// bucket, for result listings consumed by the dashboard.
func (s *Store) PresignGet(ctx context.Context, imageRef string, ttl time.Duration) (string, error) {
	if !strings.HasPrefix(imageRef, "s3://") {
		// Plain URLs are already fetchable.
		return imageRef, nil
	}
	bucket, key, err := parseS3Ref(imageRef)
	if err != nil {
		return "", err
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", imageRef, err)
	}
	return req.URL, nil
}

func parseS3Ref(imageRef string) (bucket, key string, err error) {
	u, err := url.Parse(imageRef)
	if err != nil || u.Scheme != "s3" || u.Host == "" || len(u.Path) < 2 {
		return "", "", fmt.Errorf("invalid s3 reference: %q", imageRef)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
