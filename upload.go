package augment

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// Upload is the image file sent with an augmentation request.
// Open is called once per request, so a failed submission can be retried
// with the same Upload.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// UploadFromFile stats path and returns an Upload that reopens it on demand.
func UploadFromFile(path string) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, fmt.Errorf("augment: stat upload: %w", err)
	}
	if info.IsDir() {
		return Upload{}, fmt.Errorf("augment: upload %s is a directory", path)
	}
	return Upload{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// UploadFromBytes wraps in-memory image data.
func UploadFromBytes(name string, data []byte) Upload {
	return Upload{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

// IsZero reports whether no file has been chosen.
func (u Upload) IsZero() bool {
	return u.Name == "" && u.Open == nil
}

// Extension returns the lower-cased extension without the dot.
func (u Upload) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.Name)), ".")
}

func (u Upload) open() (io.ReadCloser, error) {
	if u.Open == nil {
		return nil, ValidationError{Field: "image", Message: MsgNoImage}
	}
	return u.Open()
}

// sniffUploadType detects the content type from the leading bytes and
// returns a reader that still yields the full content.
func sniffUploadType(name string, r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	contentType := ""
	if detected := mimetype.Detect(head); strings.HasPrefix(detected.String(), "image/") {
		contentType = detected.String()
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return contentType, io.MultiReader(bytes.NewReader(head), r), nil
}
