// Package aws defines functions used to interact with the AWS API
package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	// Endpoint points the client at an S3 compatible service such as
	// Cloudflare R2 or MinIO. Empty means AWS.
	Endpoint string
	// PublicURL is the base URL objects are served from. Defaults to the
	// virtual hosted AWS URL of the bucket.
	PublicURL string
}

type S3Client struct {
	C         *s3.Client
	Bucket    *string
	publicURL string
}

func NewS3(ctx context.Context, c S3Config) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKeyID,
			c.SecretAccessKey,
			"",
		)),
		config.WithRegion(c.Region),
	)
	if err != nil {
		return nil, err
	}

	bucket := aws.String(c.Bucket)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: bucket,
	})
	if err != nil {
		var apiErr smithy.APIError

		if errors.As(err, &apiErr) {
			if apiErr.ErrorCode() == "NotFound" {
				return nil, fmt.Errorf("bucket '%s' does not exist", c.Bucket)
			}
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	publicURL := strings.TrimSuffix(c.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
	}

	return &S3Client{
		C:         client,
		Bucket:    bucket,
		publicURL: publicURL,
	}, nil
}

// Put uploads body under key and returns the public URL of the object
func (s *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.C.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      s.Bucket,
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object, %w", err)
	}

	return s.publicURL + "/" + key, nil
}
