package publish_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/publish"
)

type uploadedObject struct {
	bucket      string
	objectName  string
	filePath    string
	contentType string
}

type recordingUploader struct {
	bucketExists  bool
	createdBucket string
	uploads       []uploadedObject
	uploadError   error
}

func (uploader *recordingUploader) BucketExists(context.Context, string) (bool, error) {
	return uploader.bucketExists, nil
}

func (uploader *recordingUploader) MakeBucket(_ context.Context, bucketName string, _ minio.MakeBucketOptions) error {
	uploader.createdBucket = bucketName
	return nil
}

func (uploader *recordingUploader) FPutObject(_ context.Context, bucketName string, objectName string, filePath string, options minio.PutObjectOptions) (minio.UploadInfo, error) {
	if uploader.uploadError != nil {
		return minio.UploadInfo{}, uploader.uploadError
	}
	uploader.uploads = append(uploader.uploads, uploadedObject{bucket: bucketName, objectName: objectName, filePath: filePath, contentType: options.ContentType})
	return minio.UploadInfo{Bucket: bucketName, Key: objectName}, nil
}

func createRun(testInstance *testing.T) string {
	testInstance.Helper()
	runDirectory := filepath.Join(testInstance.TempDir(), "03-15-2024")
	require.NoError(testInstance, os.MkdirAll(filepath.Join(runDirectory, "csv_files"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(runDirectory, "csv_files", "users.csv"), []byte("USERNAME\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(runDirectory, "report.xlsx"), []byte("xlsx"), 0o644))
	return runDirectory
}

func TestDirectoryPublisherCopiesRun(testInstance *testing.T) {
	runDirectory := createRun(testInstance)
	productionDirectory := testInstance.TempDir()
	publisher, publisherError := publish.NewPublisher(publish.Configuration{Target: publish.TargetDirectory, Directory: productionDirectory}, zap.NewNop())
	require.NoError(testInstance, publisherError)

	result, publishError := publisher.Publish(context.Background(), runDirectory)
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, filepath.Join(productionDirectory, "03-15-2024"), result.Destination)
	require.ElementsMatch(testInstance, []string{"csv_files/users.csv", "report.xlsx"}, result.Files)
	_, statError := os.Stat(filepath.Join(productionDirectory, "03-15-2024", "csv_files", "users.csv"))
	require.NoError(testInstance, statError)
}

func TestObjectStorePublisherCreatesBucketAndUploads(testInstance *testing.T) {
	runDirectory := createRun(testInstance)
	uploader := &recordingUploader{}
	publisher, publisherError := publish.NewObjectStorePublisher(uploader, publish.ObjectStoreConfiguration{Bucket: "audit", Prefix: "/portal/"}, zap.NewNop())
	require.NoError(testInstance, publisherError)

	result, publishError := publisher.Publish(context.Background(), runDirectory)
	require.NoError(testInstance, publishError)
	require.Equal(testInstance, "audit", uploader.createdBucket)
	require.Equal(testInstance, "s3://audit/portal/03-15-2024", result.Destination)
	require.Equal(testInstance, []string{"portal/03-15-2024/csv_files/users.csv", "portal/03-15-2024/report.xlsx"}, result.Files)
	for _, upload := range uploader.uploads {
		require.Equal(testInstance, "audit", upload.bucket)
		require.NotEmpty(testInstance, upload.contentType)
	}
}

func TestObjectStorePublisherReusesBucketAndReportsUploadFailure(testInstance *testing.T) {
	runDirectory := createRun(testInstance)
	uploadFailure := errors.New("access denied")
	uploader := &recordingUploader{bucketExists: true, uploadError: uploadFailure}
	publisher, publisherError := publish.NewObjectStorePublisher(uploader, publish.ObjectStoreConfiguration{Bucket: "audit"}, zap.NewNop())
	require.NoError(testInstance, publisherError)

	_, publishError := publisher.Publish(context.Background(), runDirectory)
	require.ErrorIs(testInstance, publishError, uploadFailure)
	require.Empty(testInstance, uploader.createdBucket)
}

func TestNewPublisherValidatesConfiguration(testInstance *testing.T) {
	_, missingTargetError := publish.NewPublisher(publish.Configuration{}, nil)
	require.ErrorIs(testInstance, missingTargetError, publish.ErrTargetNotConfigured)

	_, missingDirectoryError := publish.NewPublisher(publish.Configuration{Target: publish.TargetDirectory}, nil)
	require.ErrorIs(testInstance, missingDirectoryError, publish.ErrProductionDirectoryNotConfigured)

	_, missingEndpointError := publish.NewPublisher(publish.Configuration{Target: publish.TargetObjectStore}, nil)
	require.ErrorIs(testInstance, missingEndpointError, publish.ErrEndpointNotConfigured)

	_, unknownTargetError := publish.NewPublisher(publish.Configuration{Target: "ftp"}, nil)
	require.Error(testInstance, unknownTargetError)

	_, missingBucketError := publish.NewObjectStorePublisher(&recordingUploader{}, publish.ObjectStoreConfiguration{}, nil)
	require.ErrorIs(testInstance, missingBucketError, publish.ErrBucketNotConfigured)
}
