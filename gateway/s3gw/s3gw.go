// Package s3gw implements gateway.Gateway against an S3-compatible
// endpoint using aws-sdk-go-v2. It is used as the *source* gateway when
// migrating out of an S3-compatible bucket, and tenants map onto
// bucket-name prefixes rather than separate accounts.
/*
 * Copyright (c) 2024 Catalyst Cloud
 */
package s3gw

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
)

// Config carries the connection parameters for one S3-compatible
// endpoint. AccessKey/SecretKey are optional; when empty the default
// AWS credential chain is used.
type Config struct {
	Region         string
	Endpoint       string // empty uses the default AWS endpoint resolution
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// Gateway is an S3-backed gateway.Gateway. A single Gateway instance
// serves every tenant; tenant names are used as the bucket name prefix
// (bucket = tenant, exactly as aistore's own S3 handler treats bucket
// names as the tenancy boundary).
type Gateway struct {
	client   *s3.Client
	uploader *manager.Uploader
}

// New constructs a Gateway from cfg.
func New(ctx context.Context, cfg Config) (*Gateway, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, cmn.Wrap(err, "load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return &Gateway{
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

// bucket returns the S3 bucket name for tenant.
func bucket(tenant string) string {
	return tenant
}

func (g *Gateway) ListContainers(ctx context.Context, tenant string) ([]cmn.Container, error) {
	out, err := g.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, cmn.Wrap(err, "list buckets")
	}

	want := bucket(tenant)
	containers := make([]cmn.Container, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		if !strings.HasPrefix(name, want+"-") && name != want {
			continue
		}
		if cos.IsSegmentsContainer(name) {
			continue
		}
		objCount, byteCount, err := g.sumObjects(ctx, name)
		if err != nil {
			return nil, err
		}
		containers = append(containers, cmn.Container{Name: name, ObjCount: objCount, ByteCount: byteCount})
	}
	return containers, nil
}

// sumObjects pages through every object in bucket and totals count/size.
// S3 has no account- or bucket-level usage header the way Swift does, so
// this is the only accurate way to populate Container.ObjCount/ByteCount.
func (g *Gateway) sumObjects(ctx context.Context, bucket string) (objCount, byteCount int64, err error) {
	paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, 0, cmn.Wrapf(err, "list objects in %s", bucket)
		}
		for _, obj := range page.Contents {
			objCount++
			byteCount += aws.ToInt64(obj.Size)
		}
	}
	return objCount, byteCount, nil
}

// StatAccount has no native S3 equivalent (no account-wide usage
// endpoint), so it totals ListContainers' now-populated per-bucket
// counts across every bucket belonging to tenant.
func (g *Gateway) StatAccount(ctx context.Context, tenant string) (cmn.AccountStats, error) {
	containers, err := g.ListContainers(ctx, tenant)
	if err != nil {
		return cmn.AccountStats{}, err
	}
	stats := cmn.AccountStats{Containers: int64(len(containers))}
	for _, c := range containers {
		stats.Objects += c.ObjCount
		stats.Bytes += c.ByteCount
	}
	return stats, nil
}

func (g *Gateway) StatContainer(ctx context.Context, tenant, container string) (cmn.Container, error) {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(container)})
	if err != nil {
		return cmn.Container{}, translateNotFound(err)
	}
	return cmn.Container{Name: container}, nil
}

func (g *Gateway) ListObjects(ctx context.Context, tenant, container string) ([]cmn.ObjectDescriptor, error) {
	var descriptors []cmn.ObjectDescriptor

	paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(container),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, cmn.Wrapf(err, "list objects in %s", container)
		}
		for _, obj := range page.Contents {
			descriptors = append(descriptors, cmn.ObjectDescriptor{
				Name:  aws.ToString(obj.Key),
				Bytes: aws.ToInt64(obj.Size),
				Hash:  strings.Trim(aws.ToString(obj.ETag), `"`),
			})
		}
	}
	return descriptors, nil
}

func (g *Gateway) StatObject(ctx context.Context, tenant, container, object string) (cmn.ObjectDescriptor, error) {
	out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(object),
	})
	if err != nil {
		return cmn.ObjectDescriptor{}, translateNotFound(err)
	}

	headers := make(map[string]string, len(out.Metadata)+3)
	for k, v := range out.Metadata {
		headers[cos.HdrMetaPrefix+strings.ToLower(k)] = v
	}
	headers[cos.HdrContentType] = aws.ToString(out.ContentType)
	headers[cos.HdrETag] = strings.Trim(aws.ToString(out.ETag), `"`)

	return cmn.ObjectDescriptor{
		Name:    object,
		Bytes:   aws.ToInt64(out.ContentLength),
		Hash:    strings.Trim(aws.ToString(out.ETag), `"`),
		Headers: headers,
	}, nil
}

func (g *Gateway) Download(ctx context.Context, tenant, container, object string) (io.ReadCloser, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(object),
	})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return out.Body, nil
}

func (g *Gateway) Upload(ctx context.Context, tenant, container, object string, body io.Reader, size int64, headers map[string]string) error {
	meta := make(map[string]string)
	var contentType string
	for k, v := range headers {
		lk := strings.ToLower(k)
		if lk == cos.HdrContentType {
			contentType = v
			continue
		}
		if strings.HasPrefix(lk, cos.HdrMetaPrefix) {
			meta[strings.TrimPrefix(lk, cos.HdrMetaPrefix)] = v
		}
	}

	input := &s3.PutObjectInput{
		Bucket:   aws.String(container),
		Key:      aws.String(object),
		Body:     body,
		Metadata: meta,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	_, err := g.uploader.Upload(ctx, input, func(u *manager.Uploader) {
		if size > cos.GBSplit {
			u.PartSize = cos.GBSplit
		}
	})
	return cmn.Wrapf(err, "upload %s/%s", container, object)
}

// PostContainer creates the bucket if absent. headers are not applied:
// Swift ACL/metadata headers are not translated to S3 settings.
func (g *Gateway) PostContainer(ctx context.Context, tenant, container string, headers map[string]string) error {
	_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(container)})
	if err != nil && !isAlreadyOwned(err) {
		return cmn.Wrapf(err, "create bucket %s", container)
	}
	return nil
}

func (g *Gateway) DeleteContainer(ctx context.Context, tenant, container string) error {
	_, err := g.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(container)})
	return cmn.Wrapf(err, "delete bucket %s", container)
}

func (g *Gateway) DeleteObject(ctx context.Context, tenant, container, object string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(object),
	})
	return cmn.Wrapf(err, "delete %s/%s", container, object)
}

func (g *Gateway) HeadContainer(ctx context.Context, tenant, container string) (map[string]string, error) {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(container)})
	if err != nil {
		return nil, translateNotFound(err)
	}
	return map[string]string{}, nil
}

func (g *Gateway) CopyWithin(ctx context.Context, tenant, srcContainer, srcObject, dstContainer, dstObject string) error {
	source := srcContainer + "/" + srcObject
	_, err := g.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstContainer),
		Key:        aws.String(dstObject),
		CopySource: aws.String(source),
	})
	return cmn.Wrapf(err, "copy %s to %s/%s", source, dstContainer, dstObject)
}

func translateNotFound(err error) error {
	var re *smithyhttp.ResponseError
	if ok := asResponseError(err, &re); ok && re.HTTPStatusCode() == 404 {
		return cmn.ErrNotFound
	}
	return err
}

func isAlreadyOwned(err error) bool {
	var re *smithyhttp.ResponseError
	return asResponseError(err, &re) && (re.HTTPStatusCode() == 409)
}

// asResponseError is a thin wrapper so the rest of the file doesn't need
// to repeat errors.As boilerplate at every call site.
func asResponseError(err error, target **smithyhttp.ResponseError) bool {
	for err != nil {
		if re, ok := err.(*smithyhttp.ResponseError); ok {
			*target = re
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
