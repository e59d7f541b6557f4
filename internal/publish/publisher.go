package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	targetNotConfiguredMessageConstant = "publication target not configured"
	unknownTargetTemplateConstant      = "unknown publication target %q"
	publishedMessageConstant           = "run published"
	logFieldTargetConstant             = "target"
	logFieldFilesConstant              = "files"
	logFieldRunConstant                = "run"
)

// ErrTargetNotConfigured indicates no publication target was configured.
var ErrTargetNotConfigured = errors.New(targetNotConfiguredMessageConstant)

// Result lists what a publication delivered.
type Result struct {
	Destination string
	Files       []string
}

// Publisher promotes one run directory.
type Publisher interface {
	Publish(executionContext context.Context, runDirectory string) (Result, error)
}

// NewPublisher constructs the publisher selected by configuration.
func NewPublisher(configuration Configuration, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.TrimSpace(configuration.Target) {
	case "":
		return nil, ErrTargetNotConfigured
	case TargetDirectory:
		publisher, publisherError := NewDirectoryPublisher(configuration.Directory, logger)
		if publisherError != nil {
			return nil, publisherError
		}
		return publisher, nil
	case TargetObjectStore:
		uploader, uploaderError := NewMinioUploader(configuration.ObjectStore)
		if uploaderError != nil {
			return nil, uploaderError
		}
		publisher, publisherError := NewObjectStorePublisher(uploader, configuration.ObjectStore, logger)
		if publisherError != nil {
			return nil, publisherError
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf(unknownTargetTemplateConstant, configuration.Target)
	}
}
