package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrRevoked is returned when delivering a reference that is no longer live.
var ErrRevoked = errors.New("blob: reference revoked")

// Preview summarizes an image result for display.
type Preview struct {
	URL    string
	Format string
	Width  int
	Height int
	Size   int
}

func (p Preview) String() string {
	if p.Format == "" {
		return fmt.Sprintf("%s (%d bytes)", p.URL, p.Size)
	}
	return fmt.Sprintf("%s %s %dx%d (%d bytes)", p.URL, p.Format, p.Width, p.Height, p.Size)
}

// Describe decodes just the image header behind ref.
func (r *Registry) Describe(ref Ref) (Preview, error) {
	res, ok := r.Get(ref.URL)
	if !ok {
		return Preview{}, ErrRevoked
	}
	p := Preview{URL: ref.URL, Size: len(res.Data)}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	if err != nil {
		return p, fmt.Errorf("blob: decode preview: %w", err)
	}
	p.Format, p.Width, p.Height = format, cfg.Width, cfg.Height
	return p, nil
}

// openExclusive creates path, failing with fs.ErrExist if it is taken.
var openExclusive = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// DirSaver delivers results by writing them into Dir.
type DirSaver struct {
	Dir string
}

// Save writes the bytes behind ref to Dir under name (or the ref's
// filename) without overwriting existing files, and returns the path.
func (d DirSaver) Save(reg *Registry, ref Ref, name string) (string, error) {
	res, ok := reg.Get(ref.URL)
	if !ok {
		return "", ErrRevoked
	}
	if name == "" {
		name = ref.Filename
	}
	name = filepath.Base(name)
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("blob: create download dir: %w", err)
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 0; ; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		f, err := openExclusive(path)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("blob: create %s: %w", candidate, err)
		}
		if _, err := f.Write(res.Data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("blob: write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("blob: write %s: %w", candidate, err)
		}
		return path, nil
	}
}
