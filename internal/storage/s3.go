package storage

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options describe el bucket compatible con S3 (MinIO en desarrollo).
type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	TTL       time.Duration
}

// S3MediaStore genera URLs prefirmadas; el cliente sube y descarga directo del bucket.
type S3MediaStore struct {
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

func NewS3MediaStore(ctx context.Context, opts S3Options) (*S3MediaStore, error) {
	if opts.Bucket == "" || opts.Endpoint == "" {
		return nil, errors.New("s3 bucket and endpoint are required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})
	return &S3MediaStore{
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		ttl:     opts.TTL,
	}, nil
}

// PresignUpload devuelve una URL PUT valida por el TTL configurado.
func (s *S3MediaStore) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", time.Time{}, err
	}
	return req.URL, time.Now().UTC().Add(s.ttl), nil
}

// PresignDownload devuelve una URL GET para mostrar la imagen.
func (s *S3MediaStore) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
