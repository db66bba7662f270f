// Package proofs stores delivery confirmation artifacts (the recipient's
// signature captured on the driver terminal) in an R2/S3 bucket, keyed by
// shipment. The key is saved on the shipment record so the audit trail can
// pull the image back later.
package proofs

import (
	"bytes"
	"context"
	"fmt"

	appconfig "textile-backend/internal/config"
	"textile-backend/internal/timeutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader is what the shipment service sees. A nil *Store satisfies the
// call sites via the service's nil check, so deployments without R2 still
// complete shipments, just without a stored signature.
type Uploader interface {
	PutDeliveryProof(ctx context.Context, shipmentID int, data []byte) (string, error)
}

type Store struct {
	client *s3.Client
	bucket string
}

// New builds an R2-compatible S3 client from config. Returns nil (no error)
// when R2 is not configured.
func New(ctx context.Context, cfg *appconfig.Config) (*Store, error) {
	if cfg.R2.Endpoint == "" || cfg.R2.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2.AccessKey,
			cfg.R2.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.R2.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("configure R2 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2.Endpoint)
	})
	return &Store{client: client, bucket: cfg.R2.Bucket}, nil
}

// PutDeliveryProof uploads the signature PNG and returns its object key.
func (s *Store) PutDeliveryProof(ctx context.Context, shipmentID int, data []byte) (string, error) {
	key := fmt.Sprintf("proofs/%s/shipment-%d.png", timeutil.Now().Format(timeutil.DateLayout), shipmentID)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("upload delivery proof: %w", err)
	}
	return key, nil
}
