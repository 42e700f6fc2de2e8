// internal/media/s3.go
// Package media resolves testimonial media references stored in S3-compatible
// object storage and issues presigned upload URLs for new media.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RefScheme prefixes object references stored on testimonials.
const RefScheme = "s3://"

// DefaultURLTTL is the lifetime of presigned URLs when none is configured.
const DefaultURLTTL = time.Hour

// Options configures an S3Client.
type Options struct {
	Endpoint  string        // S3 service endpoint URL; empty uses AWS
	Region    string        // AWS region (or equivalent for S3-compatible services)
	Bucket    string        // Bucket holding testimonial media
	AccessKey string        // Static access key; empty uses the default credential chain
	SecretKey string        // Static secret key
	URLTTL    time.Duration // Lifetime of presigned URLs
}

// S3Client wraps the AWS S3 client for media operations.
type S3Client struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	ttl     time.Duration
}

// Upload is a presigned upload target for one new object.
type Upload struct {
	Ref       string    `json:"ref"`       // Reference to store on the testimonial
	UploadURL string    `json:"uploadUrl"` // Presigned PUT URL
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewS3Client creates a client for AWS S3 or an S3-compatible service such as MinIO.
// Presigning happens locally, so no request is made until an object is accessed.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("media: bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(opts.Endpoint))
	}
	if opts.AccessKey != "" {
		accessKey, secretKey := opts.AccessKey, opts.SecretKey
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     accessKey,
					SecretAccessKey: secretKey,
					Source:          "EmbedStaticCredentials",
				}, nil
			})))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for MinIO and other S3-compatible services
	})

	ttl := opts.URLTTL
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &S3Client{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
		ttl:     ttl,
	}, nil
}

// ParseRef splits an s3://bucket/key reference. ok is false for any other form.
func ParseRef(ref string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(ref, RefScheme)
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Ref returns the reference of key in the client's bucket.
func (s *S3Client) Ref(key string) string {
	return RefScheme + s.bucket + "/" + key
}

// ResolveURL turns an object reference into a presigned GET URL. References
// that are not s3:// URIs, such as plain https URLs, are returned unchanged.
// A reference to another bucket is an error.
func (s *S3Client) ResolveURL(ctx context.Context, ref string) (string, error) {
	bucket, key, ok := ParseRef(ref)
	if !ok {
		return ref, nil
	}
	if bucket != s.bucket {
		return "", fmt.Errorf("media: reference %q is outside bucket %s", ref, s.bucket)
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", ref, err)
	}
	return req.URL, nil
}

// PresignUpload issues a presigned PUT URL for a new object at key.
func (s *S3Client) PresignUpload(ctx context.Context, key, contentType string, size int64) (Upload, error) {
	expires := 15 * time.Minute
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return Upload{}, fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return Upload{
		Ref:       s.Ref(key),
		UploadURL: req.URL,
		ExpiresAt: time.Now().UTC().Add(expires),
	}, nil
}

// ObjectKey builds the storage key of an uploaded media object. Only the base
// name of filename is kept.
func ObjectKey(env, ownerID, assetID, filename string) string {
	key := path.Join(env, "owners", ownerID, assetID)
	if base := path.Base("/" + filename); filename != "" && base != "/" && base != "." {
		key += "/" + base
	}
	return key
}
