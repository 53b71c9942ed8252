package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store is a Store backed by an S3 bucket prefix. One S3Store is mounted
// per table, keying objects under "<prefix>/<filename>".
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ Store = (*S3Store)(nil)

// NewS3Store builds an S3Store from the ambient AWS configuration (env
// vars, shared config, or instance profile — whatever the default chain
// resolves).
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("epicenter/blob: load AWS config: %w", err)
	}
	return &S3Store{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Store) key(filename string) string {
	if s.prefix == "" {
		return filename
	}
	return s.prefix + "/" + filename
}

func (s *S3Store) Put(filename string, data []byte) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	ctx := context.Background()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         strPtr(s.key(filename)),
		Body:        bytes.NewReader(data),
		ContentType: strPtr(MIMEForFilename(filename)),
	})
	if err != nil {
		return &Error{Filename: filename, Code: CodeWriteFailed, Cause: err}
	}
	return nil
}

func (s *S3Store) Get(filename string) ([]byte, bool, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, false, err
	}
	ctx := context.Background()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    strPtr(s.key(filename)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, &Error{Filename: filename, Code: CodeReadFailed, Cause: err}
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, &Error{Filename: filename, Code: CodeReadFailed, Cause: err}
	}
	return data, true, nil
}

func (s *S3Store) Delete(filename string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	ctx := context.Background()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    strPtr(s.key(filename)),
	})
	if err != nil {
		return &Error{Filename: filename, Code: CodeDeleteFailed, Cause: err}
	}
	return nil
}

func (s *S3Store) Exists(filename string) (bool, error) {
	if err := ValidateFilename(filename); err != nil {
		return false, err
	}
	ctx := context.Background()
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    strPtr(s.key(filename)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, &Error{Filename: filename, Code: CodeReadFailed, Cause: err}
	}
	return true, nil
}

func strPtr(s string) *string { return &s }
