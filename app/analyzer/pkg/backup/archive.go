package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/config"
	"github.com/iWorld-y/prospect_radar/app/analyzer/pkg/logger"
)

// ObjectAPI 归档用到的 S3 操作
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver 把备份文档存到 S3
type Archiver struct {
	api    ObjectAPI
	bucket string
	prefix string
}

// NewArchiver 创建归档器
func NewArchiver(api ObjectAPI, bucket, prefix string) *Archiver {
	return &Archiver{api: api, bucket: bucket, prefix: prefix}
}

// OpenArchiver 使用默认凭证链连接 S3
func OpenArchiver(ctx context.Context, c config.S3Config) (*Archiver, error) {
	if c.Bucket == "" {
		return nil, fmt.Errorf("backup bucket is not configured")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewArchiver(s3.NewFromConfig(cfg), c.Bucket, c.Prefix), nil
}

// Key 备份文档的对象键
func (a *Archiver) Key(ts time.Time) string {
	name := fmt.Sprintf("backup-castiel-bits-%s.json", ts.UTC().Format("20060102T150405Z"))
	return path.Join(a.prefix, name)
}

// Push 上传备份文档，返回对象键
func (a *Archiver) Push(ctx context.Context, doc Document) (string, error) {
	body, err := Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}
	key := a.Key(doc.Timestamp)
	_, err = a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	logger.Log.WithField("key", key).WithField("reports", len(doc.History)).Info("备份已上传")
	return key, nil
}

// Pull 下载备份文档的原始内容
func (a *Archiver) Pull(ctx context.Context, key string) ([]byte, error) {
	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", a.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", a.bucket, key, err)
	}
	return data, nil
}
