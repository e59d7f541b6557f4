package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const (
	uploaderNotConfiguredMessageConstant = "object uploader not configured"
	bucketNotConfiguredMessageConstant   = "object store bucket not configured"
	endpointNotConfiguredMessageConstant = "object store endpoint not configured"
	createClientTemplateConstant         = "unable to create object store client: %w"
	bucketLookupTemplateConstant         = "unable to check bucket %s: %w"
	bucketCreateTemplateConstant         = "unable to create bucket %s: %w"
	uploadTemplateConstant               = "unable to upload %s to %s: %w"
	walkRunTemplateConstant              = "unable to walk %s: %w"
	bucketCreatedMessageConstant         = "bucket created"
	objectUploadedMessageConstant        = "object uploaded"
	logFieldBucketConstant               = "bucket"
	logFieldObjectConstant               = "object"
	objectURITemplateConstant            = "s3://%s/%s"
	defaultContentTypeConstant           = "application/octet-stream"
)

var (
	// ErrUploaderNotConfigured indicates the object store publisher has no uploader.
	ErrUploaderNotConfigured = errors.New(uploaderNotConfiguredMessageConstant)
	// ErrBucketNotConfigured indicates no bucket name was configured.
	ErrBucketNotConfigured = errors.New(bucketNotConfiguredMessageConstant)
	// ErrEndpointNotConfigured indicates no object store endpoint was configured.
	ErrEndpointNotConfigured = errors.New(endpointNotConfiguredMessageConstant)
)

// ObjectUploader is the subset of the minio client used for publication.
type ObjectUploader interface {
	BucketExists(executionContext context.Context, bucketName string) (bool, error)
	MakeBucket(executionContext context.Context, bucketName string, options minio.MakeBucketOptions) error
	FPutObject(executionContext context.Context, bucketName string, objectName string, filePath string, options minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewMinioUploader constructs a minio client for the configured endpoint.
func NewMinioUploader(configuration ObjectStoreConfiguration) (*minio.Client, error) {
	if len(strings.TrimSpace(configuration.Endpoint)) == 0 {
		return nil, ErrEndpointNotConfigured
	}
	client, clientError := minio.New(configuration.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(configuration.AccessKeyID, configuration.SecretAccessKey, ""),
		Secure: configuration.UseSSL,
		Region: configuration.Region,
	})
	if clientError != nil {
		return nil, fmt.Errorf(createClientTemplateConstant, clientError)
	}
	return client, nil
}

// ObjectStorePublisher uploads a run as objects named <prefix>/<run name>/<relative path>.
type ObjectStorePublisher struct {
	uploader      ObjectUploader
	configuration ObjectStoreConfiguration
	logger        *zap.Logger
}

// NewObjectStorePublisher constructs an ObjectStorePublisher.
func NewObjectStorePublisher(uploader ObjectUploader, configuration ObjectStoreConfiguration, logger *zap.Logger) (*ObjectStorePublisher, error) {
	if uploader == nil {
		return nil, ErrUploaderNotConfigured
	}
	if len(strings.TrimSpace(configuration.Bucket)) == 0 {
		return nil, ErrBucketNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectStorePublisher{uploader: uploader, configuration: configuration, logger: logger}, nil
}

// Publish ensures the bucket exists and uploads every file of runDirectory.
func (publisher *ObjectStorePublisher) Publish(executionContext context.Context, runDirectory string) (Result, error) {
	bucket := publisher.configuration.Bucket
	objectPrefix := path.Join(strings.Trim(publisher.configuration.Prefix, "/"), filepath.Base(runDirectory))
	result := Result{Destination: fmt.Sprintf(objectURITemplateConstant, bucket, objectPrefix)}

	if bucketError := publisher.ensureBucket(executionContext); bucketError != nil {
		return result, bucketError
	}

	walkError := filepath.WalkDir(runDirectory, func(filePath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		relativePath, relativeError := filepath.Rel(runDirectory, filePath)
		if relativeError != nil {
			return relativeError
		}
		objectName := path.Join(objectPrefix, filepath.ToSlash(relativePath))
		options := minio.PutObjectOptions{ContentType: contentTypeFor(filePath)}
		if _, uploadError := publisher.uploader.FPutObject(executionContext, bucket, objectName, filePath, options); uploadError != nil {
			return fmt.Errorf(uploadTemplateConstant, filePath, objectName, uploadError)
		}
		publisher.logger.Debug(objectUploadedMessageConstant, zap.String(logFieldBucketConstant, bucket), zap.String(logFieldObjectConstant, objectName))
		result.Files = append(result.Files, objectName)
		return nil
	})
	if walkError != nil {
		return result, fmt.Errorf(walkRunTemplateConstant, runDirectory, walkError)
	}

	publisher.logger.Info(publishedMessageConstant, zap.String(logFieldTargetConstant, result.Destination), zap.String(logFieldRunConstant, runDirectory), zap.Int(logFieldFilesConstant, len(result.Files)))
	return result, nil
}

func (publisher *ObjectStorePublisher) ensureBucket(executionContext context.Context) error {
	bucket := publisher.configuration.Bucket
	exists, lookupError := publisher.uploader.BucketExists(executionContext, bucket)
	if lookupError != nil {
		return fmt.Errorf(bucketLookupTemplateConstant, bucket, lookupError)
	}
	if exists {
		return nil
	}
	if createError := publisher.uploader.MakeBucket(executionContext, bucket, minio.MakeBucketOptions{Region: publisher.configuration.Region}); createError != nil {
		return fmt.Errorf(bucketCreateTemplateConstant, bucket, createError)
	}
	publisher.logger.Info(bucketCreatedMessageConstant, zap.String(logFieldBucketConstant, bucket))
	return nil
}

func contentTypeFor(filePath string) string {
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if len(contentType) == 0 {
		return defaultContentTypeConstant
	}
	return contentType
}
