package service

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"ohshop-admin/internal/data"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxUploadBytes caps the size of a single upload.
const MaxUploadBytes = 10 << 20

// MaxUploadPixels caps the decoded size of an image, whatever its compressed size.
const MaxUploadPixels = 40_000_000

// FileBucket stores uploaded files.
type FileBucket interface {
	Save(name, contentType, uploadedBy string, r io.Reader) (string, error)
	Open(id string) (io.ReadCloser, *data.StoredFile, error)
	Delete(id string) error
}

// ImageKind selects where an image is stored and the box it is fitted into.
type ImageKind struct {
	Dir    string
	Width  int
	Height int
}

var (
	// Thumbnail is a content media thumbnail.
	Thumbnail = ImageKind{Dir: "content_media/thumbnails", Width: 1280, Height: 720}
	// Logo is a category logo.
	Logo = ImageKind{Dir: "categories/logos", Width: 512, Height: 512}
)

// Upload describes a stored image.
type Upload struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int64  `json:"size"`
}

// UploadService validates, resizes and stores images.
type UploadService struct {
	files FileBucket
}

// NewUploadService creates a new UploadService.
func NewUploadService(files FileBucket) *UploadService {
	return &UploadService{files: files}
}

// StoreImage checks that r holds an image, fits it into kind's box and stores it
// under {kind.Dir}/{userID}/{uuid}.{ext}.
func (s *UploadService) StoreImage(kind ImageKind, userID, originalName string, r io.Reader) (*Upload, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(raw) == 0 {
		return nil, invalidf("upload %q is empty", originalName)
	}
	if len(raw) > MaxUploadBytes {
		return nil, invalidf("upload %q exceeds %d bytes", originalName, MaxUploadBytes)
	}

	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, invalidf("upload %q is %s, not an image", originalName, mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, invalidf("upload %q is not a readable image: %v", originalName, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxUploadPixels {
		return nil, invalidf("upload %q is %dx%d, above the %d pixel limit", originalName, cfg.Width, cfg.Height, MaxUploadPixels)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, invalidf("upload %q is not a readable image: %v", originalName, err)
	}
	img = imaging.Fit(img, kind.Width, kind.Height, imaging.Lanczos)

	format, contentType, ext := outputFormat(mt)
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", originalName, err)
	}

	owner := userID
	if owner == "" {
		owner = "anonymous"
	}
	name := path.Join(kind.Dir, owner, uuid.NewString()+ext)
	size := int64(out.Len())
	id, err := s.files.Save(name, contentType, userID, &out)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Upload{
		ID:          id,
		Path:        name,
		URL:         "/files/" + id,
		ContentType: contentType,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Size:        size,
	}, nil
}

// Open returns a stored file for streaming.
func (s *UploadService) Open(id string) (io.ReadCloser, *data.StoredFile, error) {
	return s.files.Open(id)
}

// Delete removes a stored file.
func (s *UploadService) Delete(id string) error {
	return s.files.Delete(id)
}

// outputFormat keeps PNG for images that may carry transparency and uses JPEG otherwise.
func outputFormat(mt *mimetype.MIME) (imaging.Format, string, string) {
	if mt.Is("image/png") || mt.Is("image/gif") || mt.Is("image/webp") {
		return imaging.PNG, "image/png", ".png"
	}
	return imaging.JPEG, "image/jpeg", ".jpg"
}
