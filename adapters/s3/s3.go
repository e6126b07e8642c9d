package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"labelme/models"
)

type S3Operator struct {
	// Client 是 S3 客戶端。
	Client *s3.Client
	// Presigner 用來產生 presigned URL。
	Presigner *s3.PresignClient
	// Bucket 是 S3 存儲桶的名稱。
	Bucket string
}

func NewS3Operator(client *s3.Client, bucket string) (*S3Operator, error) {
	const op = "NewS3Operator"
	if client == nil {
		return nil, fmt.Errorf("[%s] s3 client cannot be nil", op)
	}
	if bucket == "" {
		return nil, fmt.Errorf("[%s] bucket cannot be empty", op)
	}
	return &S3Operator{Client: client, Presigner: s3.NewPresignClient(client), Bucket: bucket}, nil
}

// PresignPut 產生上傳用的 URL。metadata 會被簽進請求，
// 上傳時必須帶上回傳的 headers，否則簽章不符。
func (s *S3Operator) PresignPut(ctx context.Context, key, contentType string, metadata map[string]string, ttl time.Duration) (string, http.Header, error) {
	const op = "PresignPut"
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", nil, fmt.Errorf("[%s] Fail to presign put object, key=%s, err=%w", op, key, err)
	}
	return req.URL, req.SignedHeader, nil
}

func (s *S3Operator) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	const op = "PresignGet"
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("[%s] Fail to presign get object, key=%s, err=%w", op, key, err)
	}
	return req.URL, nil
}

func (s *S3Operator) PutObject(ctx context.Context, key, contentType string, metadata map[string]string, content []byte) error {
	const op = "PutObject"
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(content))),
		Metadata:      metadata,
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to upload file to S3, key=%s, err=%w", op, key, err)
	}
	return nil
}

// DeleteObject 刪除物件，S3 對不存在的物件也會回傳成功
func (s *S3Operator) DeleteObject(ctx context.Context, key string) error {
	const op = "DeleteObject"
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("[%s] Fail to delete object, key=%s, err=%w", op, key, err)
	}
	return nil
}

// HeadMetadata 讀回物件的 user metadata，key 一律是小寫
func (s *S3Operator) HeadMetadata(ctx context.Context, key string) (map[string]string, error) {
	const op = "HeadMetadata"
	out, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("[%s] key=%s, err=%w", op, key, models.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("[%s] Fail to head object, key=%s, err=%w", op, key, err)
	}
	if out.Metadata == nil {
		return map[string]string{}, nil
	}
	return out.Metadata, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
