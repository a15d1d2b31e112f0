package config

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3 client and bucket info
type S3Config struct {
	Client     *s3.Client
	BucketName string
}

// NewS3Config initializes the S3 client from the default AWS credential chain
func NewS3Config(ctx context.Context, images ImageConfig) (*S3Config, error) {
	if images.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET_NAME is not set")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(images.AWSRegion),
	)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:     s3.NewFromConfig(awsCfg),
		BucketName: images.S3Bucket,
	}, nil
}
