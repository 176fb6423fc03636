package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shaiso/musiclet/internal/config"
)

// s3API — часть клиента S3, которая нужна загрузчику.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 загружает файлы в S3-совместимое хранилище.
type S3 struct {
	client   s3API
	bucket   string
	region   string
	endpoint string
	prefix   string
}

// NewS3 создаёт загрузчик со статическими ключами.
//
// Если задан endpoint_url (minio и т.п.), используется path-style адресация.
func NewS3(ctx context.Context, cfg config.S3Config) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.EndpointURL, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3{
		client:   client,
		bucket:   cfg.Bucket,
		region:   cfg.Region,
		endpoint: endpoint,
		prefix:   cfg.Prefix,
	}, nil
}

// UploadAudio загружает аудиофайл с типом audio/mpeg.
func (u *S3) UploadAudio(ctx context.Context, path, name string) (string, error) {
	return u.upload(ctx, path, name, AudioContentType)
}

// UploadFile загружает файл с типом по расширению.
func (u *S3) UploadFile(ctx context.Context, path, name string) (string, error) {
	return u.upload(ctx, path, name, contentType(name))
}

func (u *S3) upload(ctx context.Context, path, name, ct string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	key := objectKey(u.prefix, name)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ct),
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 put %s: %v", ErrUpload, key, err)
	}
	return u.objectURL(key), nil
}

// objectURL строит публичный адрес объекта.
func (u *S3) objectURL(key string) string {
	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key)
}
