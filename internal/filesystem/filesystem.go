// Package filesystem exposes the filesystem primitives used by run housekeeping and publication.
package filesystem

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	directoryPermissionsConstant       = 0o755
	copyFileErrorTemplateConstant      = "unable to copy %s to %s: %w"
	walkTreeErrorTemplateConstant      = "unable to walk %s: %w"
	sourceNotDirectoryTemplateConstant = "%s: %w"
	sourceNotDirectoryMessageConstant  = "source is not a directory"
)

// ErrSourceNotDirectory indicates a tree copy was requested from a regular file.
var ErrSourceNotDirectory = errors.New(sourceNotDirectoryMessageConstant)

// FileSystem exposes filesystem operations required by run services.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	MkdirAll(path string, permissions fs.FileMode) error
	ReadDir(path string) ([]fs.DirEntry, error)
	RemoveAll(path string) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// MkdirAll ensures a directory hierarchy exists with the provided permissions.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// ReadDir lists directory entries sorted by name.
func (OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// RemoveAll deletes path and everything beneath it.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// CopyTree copies every regular file under sourceDirectory into destinationDirectory,
// preserving relative paths, and returns the relative paths copied.
func CopyTree(sourceDirectory string, destinationDirectory string) ([]string, error) {
	sourceInfo, statError := os.Stat(sourceDirectory)
	if statError != nil {
		return nil, statError
	}
	if !sourceInfo.IsDir() {
		return nil, fmt.Errorf(sourceNotDirectoryTemplateConstant, sourceDirectory, ErrSourceNotDirectory)
	}

	copied := []string{}
	walkError := filepath.WalkDir(sourceDirectory, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return entryError
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		relativePath, relativeError := filepath.Rel(sourceDirectory, path)
		if relativeError != nil {
			return relativeError
		}
		if copyError := CopyFile(path, filepath.Join(destinationDirectory, relativePath)); copyError != nil {
			return copyError
		}
		copied = append(copied, filepath.ToSlash(relativePath))
		return nil
	})
	if walkError != nil {
		return copied, fmt.Errorf(walkTreeErrorTemplateConstant, sourceDirectory, walkError)
	}
	return copied, nil
}

// CopyFile copies one file, creating the destination's parent directories.
func CopyFile(sourcePath string, destinationPath string) error {
	if directoryError := os.MkdirAll(filepath.Dir(destinationPath), directoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, directoryError)
	}
	source, openError := os.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, openError)
	}
	defer source.Close()

	destination, createError := os.Create(destinationPath)
	if createError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, createError)
	}
	_, copyError := io.Copy(destination, source)
	closeError := destination.Close()
	if copyError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, copyError)
	}
	if closeError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, closeError)
	}
	return nil
}
