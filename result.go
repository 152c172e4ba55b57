package augment

import (
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ResultKind distinguishes a single image from a zip of images.
type ResultKind string

const (
	ResultImage   ResultKind = "image"
	ResultArchive ResultKind = "archive"
)

const (
	DefaultImageFilename   = "augmented_image.png"
	DefaultArchiveFilename = "augmented_rotated_images.zip"
)

// Result is the binary output of an augmentation request.
type Result struct {
	Data     []byte
	MimeType string
	Kind     ResultKind
	// Filename comes from Content-Disposition, or a default per kind.
	Filename string
}

// Size returns the payload length in bytes.
func (r Result) Size() int { return len(r.Data) }

func newResult(resp binaryResponse, spec requestSpec) Result {
	mimeType, kind := detectKind(resp.Data, resp.ContentType)
	if kind == "" {
		kind = spec.expect
	}
	name := resp.Filename
	if name == "" {
		name = spec.defaultName
	}
	return Result{
		Data:     resp.Data,
		MimeType: mimeType,
		Kind:     kind,
		Filename: name,
	}
}

// detectKind trusts the payload bytes first and the declared
// Content-Type second.
func detectKind(data []byte, contentType string) (string, ResultKind) {
	detected := mimetype.Detect(data)
	switch {
	case detected.Is("application/zip"):
		return detected.String(), ResultArchive
	case strings.HasPrefix(detected.String(), "image/"):
		return detected.String(), ResultImage
	}
	declared, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return detected.String(), ""
	}
	switch {
	case declared == "application/zip" || declared == "application/x-zip-compressed":
		return declared, ResultArchive
	case strings.HasPrefix(declared, "image/"):
		return declared, ResultImage
	}
	return declared, ""
}
