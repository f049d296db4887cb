package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/go-kratos/kratos/v2/log"
)

// S3Store 将对象写入 S3 兼容存储，位置句柄形如 s3://bucket/key。
type S3Store struct {
	client s3iface.S3API
	bucket string
	prefix string
	log    *log.Helper
}

// NewS3Store 使用默认凭证链构造 S3 客户端。
func NewS3Store(cfg S3Config, logger log.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blobstore: s3 bucket is required")
	}
	awsCfg := aws.NewConfig()
	if cfg.Region != "" {
		awsCfg = awsCfg.WithRegion(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("blobstore: create aws session: %w", err)
	}
	return NewS3StoreWithClient(s3.New(sess), cfg.Bucket, cfg.Prefix, logger), nil
}

// NewS3StoreWithClient 使用外部提供的客户端构造 S3Store。
func NewS3StoreWithClient(client s3iface.S3API, bucket, prefix string, logger log.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, log: log.NewHelper(logger)}
}

// Store 以单次 PutObject 上传完整内容。
func (s *S3Store) Store(ctx context.Context, pathHint string, content []byte, contentType string) (string, error) {
	key, err := cleanKey(pathHint)
	if err != nil {
		return "", err
	}
	if s.prefix != "" {
		key = path.Join(s.prefix, key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObjectWithContext(ctx, input); err != nil {
		s.log.WithContext(ctx).Errorf("put object failed: bucket=%s key=%s err=%v", s.bucket, key, err)
		return "", fmt.Errorf("putting object in bucket `%s` at key `%s`: %w", s.bucket, key, err)
	}

	s.log.WithContext(ctx).Infof("blob stored in s3: bucket=%s key=%s size=%d", s.bucket, key, len(content))
	return "s3://" + s.bucket + "/" + key, nil
}
