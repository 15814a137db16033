//go:build unit

package service

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

// withDimensions rewrites the IHDR chunk of a PNG to claim w x h pixels.
func withDimensions(t *testing.T, pngBytes []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), pngBytes...)
	if string(out[12:16]) != "IHDR" {
		t.Fatalf("expected IHDR as the first chunk, got %q", out[12:16])
	}
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestUploadService_StoreImage_PNG(t *testing.T) {
	files := newMockFileBucket()
	svc := NewUploadService(files)

	up, err := svc.StoreImage(Thumbnail, "user-1", "banner.png", bytes.NewReader(encodePNG(t, 2000, 1000)))
	if err != nil {
		t.Fatalf("StoreImage failed: %v", err)
	}
	if up.Width != 1280 || up.Height != 640 {
		t.Errorf("expected the image fitted to 1280x640, got %dx%d", up.Width, up.Height)
	}
	if up.ContentType != "image/png" || !strings.HasSuffix(up.Path, ".png") {
		t.Errorf("expected a png, got %s at %s", up.ContentType, up.Path)
	}
	if !strings.HasPrefix(up.Path, "content_media/thumbnails/user-1/") {
		t.Errorf("unexpected path %s", up.Path)
	}
	if up.URL != "/files/"+up.ID {
		t.Errorf("unexpected url %s", up.URL)
	}
	if int64(len(files.saved[up.ID])) != up.Size {
		t.Errorf("reported size %d does not match stored %d", up.Size, len(files.saved[up.ID]))
	}
}

func TestUploadService_StoreImage_JPEG(t *testing.T) {
	files := newMockFileBucket()
	svc := NewUploadService(files)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(300, 200), nil); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}

	up, err := svc.StoreImage(Logo, "", "logo.jpg", &buf)
	if err != nil {
		t.Fatalf("StoreImage failed: %v", err)
	}
	if up.ContentType != "image/jpeg" || !strings.HasSuffix(up.Path, ".jpg") {
		t.Errorf("expected a jpeg, got %s at %s", up.ContentType, up.Path)
	}
	if !strings.HasPrefix(up.Path, "categories/logos/anonymous/") {
		t.Errorf("expected the anonymous owner directory, got %s", up.Path)
	}
	// Smaller images are not enlarged.
	if up.Width != 300 || up.Height != 200 {
		t.Errorf("expected 300x200, got %dx%d", up.Width, up.Height)
	}
}

func TestUploadService_StoreImage_Rejects(t *testing.T) {
	files := newMockFileBucket()
	svc := NewUploadService(files)

	testCases := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"not an image", []byte("just some text, certainly not pixels")},
		{"too large", bytes.Repeat([]byte{0}, MaxUploadBytes+1)},
		{"truncated png", encodePNG(t, 50, 50)[:40]},
		{"too many pixels", withDimensions(t, encodePNG(t, 4, 4), 20000, 20000)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.StoreImage(Thumbnail, "user-1", "file", bytes.NewReader(tc.body))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
	if len(files.saved) != 0 {
		t.Errorf("rejected uploads must not be stored, got %d", len(files.saved))
	}
}
