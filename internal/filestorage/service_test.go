package filestorage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"campus_lostfound_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func setupFileStorageService(t *testing.T, maxBytes int64) (*FileStorageService, string) {
	dir := t.TempDir()
	fsService, err := NewFileStorageService(&config.Config{
		ImageStoragePath:   dir,
		ImagePublicBaseURL: "/images/",
		MaxProofImageBytes: maxBytes,
	}, zap.NewNop())
	require.NoError(t, err)
	return fsService, dir
}

// newTestFileHeader builds a multipart.FileHeader the way gin would parse it.
func newTestFileHeader(t *testing.T, fieldname, filename, content string) *multipart.FileHeader {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldname, filename))
	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)

	files := form.File[fieldname]
	require.NotEmpty(t, files)
	return files[0]
}

func TestFileStorageService_SaveImage(t *testing.T) {
	fsService, dir := setupFileStorageService(t, 1<<20)

	// The client-supplied extension is ignored in favour of the sniffed type.
	fh := newTestFileHeader(t, "image", "umbrella.txt", pngHeader+"rest-of-image")
	url, err := fsService.SaveImage(fh, "items")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/images/items/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	rel := strings.TrimPrefix(url, "/images/")
	content, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	assert.Equal(t, pngHeader+"rest-of-image", string(content))

	require.NoError(t, fsService.DeleteByURL(url))
	_, err = os.Stat(filepath.Join(dir, rel))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageService_RejectsNonImages(t *testing.T) {
	fsService, _ := setupFileStorageService(t, 1<<20)

	_, err := fsService.SaveImage(newTestFileHeader(t, "image", "notes.jpg", "just some text"), "items")
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestFileStorageService_RejectsOversized(t *testing.T) {
	fsService, _ := setupFileStorageService(t, 16)

	_, err := fsService.EncodeDataURI(newTestFileHeader(t, "proofImage", "big.png", pngHeader+strings.Repeat("x", 64)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFileStorageService_EncodeDataURI(t *testing.T) {
	fsService, _ := setupFileStorageService(t, 1<<20)

	uri, err := fsService.EncodeDataURI(newTestFileHeader(t, "proofImage", "receipt.png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
}

func TestFileStorageService_DeleteFile(t *testing.T) {
	fsService, dir := setupFileStorageService(t, 1<<20)

	assert.NoError(t, fsService.DeleteFile("items/missing.png"))
	assert.NoError(t, fsService.DeleteByURL("https://elsewhere.example/x.png"))

	outside := filepath.Join(dir, "..", "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	defer os.Remove(outside)

	err := fsService.DeleteFile("../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file path for deletion")
	_, statErr := os.Stat(outside)
	assert.NoError(t, statErr)

	_, err = fsService.SaveImage(nil, "items")
	assert.EqualError(t, err, "fileHeader cannot be nil")
}
