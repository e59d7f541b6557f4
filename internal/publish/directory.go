package publish

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/portalaudit/internal/filesystem"
)

const (
	productionDirectoryNotConfiguredMessageConstant = "production directory not configured"
	directoryPublishTemplateConstant                = "unable to publish %s to %s: %w"
)

// ErrProductionDirectoryNotConfigured indicates the directory target has no destination.
var ErrProductionDirectoryNotConfigured = errors.New(productionDirectoryNotConfiguredMessageConstant)

// DirectoryPublisher copies a run into <production>/<run name>.
type DirectoryPublisher struct {
	productionDirectory string
	logger              *zap.Logger
}

// NewDirectoryPublisher constructs a DirectoryPublisher.
func NewDirectoryPublisher(productionDirectory string, logger *zap.Logger) (*DirectoryPublisher, error) {
	productionDirectory = strings.TrimSpace(productionDirectory)
	if len(productionDirectory) == 0 {
		return nil, ErrProductionDirectoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryPublisher{productionDirectory: productionDirectory, logger: logger}, nil
}

// Publish copies every file of runDirectory, replacing files already published for the same run.
func (publisher *DirectoryPublisher) Publish(executionContext context.Context, runDirectory string) (Result, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return Result{}, contextError
	}
	destination := filepath.Join(publisher.productionDirectory, filepath.Base(runDirectory))
	copied, copyError := filesystem.CopyTree(runDirectory, destination)
	if copyError != nil {
		return Result{Destination: destination, Files: copied}, fmt.Errorf(directoryPublishTemplateConstant, runDirectory, destination, copyError)
	}
	publisher.logger.Info(publishedMessageConstant, zap.String(logFieldTargetConstant, destination), zap.String(logFieldRunConstant, runDirectory), zap.Int(logFieldFilesConstant, len(copied)))
	return Result{Destination: destination, Files: copied}, nil
}
