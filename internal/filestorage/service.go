// File: internal/filestorage/service.go
package filestorage

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"campus_lostfound_backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds the maximum allowed size")
)

// allowed maps sniffed MIME types to the extension files are stored with.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStorageService stores item images on local disk and encodes proof images as data URIs.
type FileStorageService struct {
	storagePath string
	publicBase  string
	maxBytes    int64
	logger      *zap.Logger
}

// NewFileStorageService creates a new FileStorageService.
func NewFileStorageService(cfg *config.Config, logger *zap.Logger) (*FileStorageService, error) {
	if cfg.ImageStoragePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(cfg.ImageStoragePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", cfg.ImageStoragePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", cfg.ImageStoragePath, err)
	}
	maxBytes := cfg.MaxProofImageBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	logger.Info("FileStorageService initialized", zap.String("storagePath", cfg.ImageStoragePath))
	return &FileStorageService{
		storagePath: cfg.ImageStoragePath,
		publicBase:  strings.TrimRight(cfg.ImagePublicBaseURL, "/"),
		maxBytes:    maxBytes,
		logger:      logger.Named("FileStorage"),
	}, nil
}

// StoragePath is the directory served under the public base URL.
func (s *FileStorageService) StoragePath() string { return s.storagePath }

// readImage loads an upload into memory after checking its size and sniffed type.
func (s *FileStorageService) readImage(fileHeader *multipart.FileHeader) ([]byte, string, error) {
	if fileHeader == nil {
		return nil, "", fmt.Errorf("fileHeader cannot be nil")
	}
	if fileHeader.Size > s.maxBytes {
		return nil, "", ErrTooLarge
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", ErrTooLarge
	}

	mimeType := http.DetectContentType(data)
	if _, ok := allowed[mimeType]; !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	return data, mimeType, nil
}

// SaveImage writes an uploaded image under subDir with a generated name and
// returns its public URL.
func (s *FileStorageService) SaveImage(fileHeader *multipart.FileHeader, subDir string) (string, error) {
	data, mimeType, err := s.readImage(fileHeader)
	if err != nil {
		return "", err
	}

	cleanSubDir := filepath.Clean(subDir)
	if strings.HasPrefix(cleanSubDir, "..") || filepath.IsAbs(cleanSubDir) {
		return "", fmt.Errorf("invalid subDir path")
	}
	destinationDir := filepath.Join(s.storagePath, cleanSubDir)
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create sub-directory for file storage", zap.String("path", destinationDir), zap.Error(err))
		return "", fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	uniqueFilename := uuid.New().String() + allowed[mimeType]
	destinationPath := filepath.Join(destinationDir, uniqueFilename)
	if err := os.WriteFile(destinationPath, data, 0o644); err != nil {
		s.logger.Error("Failed to write uploaded file", zap.String("path", destinationPath), zap.Error(err))
		_ = os.Remove(destinationPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	relativePath := filepath.ToSlash(filepath.Join(cleanSubDir, uniqueFilename))
	s.logger.Info("File saved successfully", zap.String("path", destinationPath))
	return s.publicBase + "/" + relativePath, nil
}

// EncodeDataURI returns the upload as a base64 data URI for embedding in a record.
func (s *FileStorageService) EncodeDataURI(fileHeader *multipart.FileHeader) (string, error) {
	data, mimeType, err := s.readImage(fileHeader)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	b.Grow(len(mimeType) + 13 + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String(), nil
}

// DeleteByURL deletes a file previously returned by SaveImage.
// URLs outside the public base are ignored.
func (s *FileStorageService) DeleteByURL(publicURL string) error {
	prefix := s.publicBase + "/"
	if publicURL == "" || !strings.HasPrefix(publicURL, prefix) {
		return nil
	}
	return s.DeleteFile(strings.TrimPrefix(publicURL, prefix))
}

// DeleteFile deletes a file given its path relative to the storagePath.
func (s *FileStorageService) DeleteFile(relativePath string) error {
	if relativePath == "" {
		return fmt.Errorf("relative path cannot be empty")
	}

	cleanRelativePath := filepath.Clean(relativePath)
	if strings.Contains(cleanRelativePath, "..") || filepath.IsAbs(cleanRelativePath) {
		s.logger.Warn("Attempt to delete file with path traversal", zap.String("relativePath", relativePath))
		return fmt.Errorf("invalid file path for deletion")
	}

	fullPath := filepath.Join(s.storagePath, cleanRelativePath)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
			return nil
		}
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	s.logger.Info("File deleted successfully", zap.String("path", fullPath))
	return nil
}
