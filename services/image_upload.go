package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MinImageSize is the smallest accepted category image (100KB)
	MinImageSize = 100 * 1024
	// MaxImageSize is the largest accepted category image (800KB)
	MaxImageSize = 800 * 1024
)

var (
	ErrImageNotImage = errors.New("only image files are allowed")
	ErrImageTooSmall = fmt.Errorf("image must be at least %dKB", MinImageSize/1024)
	ErrImageTooLarge = fmt.Errorf("image must be at most %dKB", MaxImageSize/1024)
	ErrInvalidLevel  = errors.New("level must be one of head, sub, micro")
)

const categoryImagePrefix = "categories/"

var extensionByMIME = map[string]string{
	"image/jpeg":    ".jpg",
	"image/jpg":     ".jpg",
	"image/png":     ".png",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
}

var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
}

// ValidateImage enforces an image/* MIME type and the inclusive [100KB, 800KB] size window.
// The MIME check runs first, so a non-image is rejected regardless of size.
func ValidateImage(contentType string, size int64) error {
	if imageMediaType(contentType) == "" {
		return ErrImageNotImage
	}
	if size < MinImageSize {
		return ErrImageTooSmall
	}
	if size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// imageMediaType returns the lower-cased image/* media type without parameters,
// or "" when contentType is malformed or not an image
func imageMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ""
	}
	return mediaType
}

// ImageFile is an image picked in a category form
type ImageFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ImageUploadRequest is the payload of POST /category-image-upload
type ImageUploadRequest struct {
	Level       string `json:"level"`
	Slug        string `json:"slug"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	DataURL     string `json:"data_url"`
}

// ImageUploadResponse is the reply of POST /category-image-upload
type ImageUploadResponse struct {
	Success   bool   `json:"success"`
	Bucket    string `json:"bucket"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

// ImageUploader is the endpoint the gate hands accepted images to
type ImageUploader interface {
	UploadCategoryImage(ctx context.Context, req *ImageUploadRequest) (*ImageUploadResponse, error)
}

// ImageRemover is implemented by uploaders that can delete an object they stored
type ImageRemover interface {
	RemoveCategoryImage(ctx context.Context, key string) error
}

// EncodeDataURL renders bytes as a base64 data URL
func EncodeDataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL accepts "data:<mime>;base64,<payload>" or a bare base64 payload.
// The returned content type is empty for a bare payload.
func DecodeDataURL(dataURL string) (string, []byte, error) {
	dataURL = strings.TrimSpace(dataURL)
	if dataURL == "" {
		return "", nil, NewValidationError("data_url", "image data is required")
	}

	contentType := ""
	payload := dataURL
	if strings.HasPrefix(dataURL, "data:") {
		header, rest, found := strings.Cut(dataURL, ",")
		if !found {
			return "", nil, NewValidationError("data_url", "malformed data URL")
		}
		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return "", nil, NewValidationError("data_url", "data URL must be base64 encoded")
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, NewValidationError("data_url", "image data is not valid base64")
		}
	}
	return contentType, data, nil
}

// ImageUploadService stores category images. It re-validates everything the
// gate already checked because the endpoint is reachable on its own.
type ImageUploadService struct {
	storage StorageProvider
	now     func() time.Time
}

// NewImageUploadService creates the upload endpoint service
func NewImageUploadService(storage StorageProvider) *ImageUploadService {
	return &ImageUploadService{storage: storage, now: time.Now}
}

// UploadCategoryImage validates and stores one image, returning its public URL
func (s *ImageUploadService) UploadCategoryImage(ctx context.Context, req *ImageUploadRequest) (*ImageUploadResponse, error) {
	level, err := ParseCategoryLevel(req.Level)
	if err != nil {
		return nil, fieldError("level", err)
	}

	slug := SanitizeSlug(req.Slug)
	if slug == "" {
		return nil, NewValidationError("slug", "slug is required")
	}

	dataType, data, err := DecodeDataURL(req.DataURL)
	if err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if contentType == "" {
		contentType = strings.ToLower(dataType)
	}
	if err := ValidateImage(contentType, int64(len(data))); err != nil {
		return nil, fieldError("image", err)
	}
	contentType = imageMediaType(contentType)

	key := CategoryImageKey(level, slug, req.FileName, contentType, s.now())
	result, err := s.storage.UploadReader(ctx, bytes.NewReader(data), key, contentType, int64(len(data)))
	if err != nil {
		return nil, &UpstreamError{Service: "image storage", Err: err}
	}
	if result.URL == "" {
		err := errors.New("storage did not return a public URL")
		if derr := s.storage.Delete(ctx, result.Key); derr != nil {
			err = errors.Join(err, derr)
		}
		return nil, &UpstreamError{Service: "image storage", Err: err}
	}

	return &ImageUploadResponse{
		Success:   true,
		Bucket:    s.storage.Bucket(),
		Path:      result.Key,
		PublicURL: result.URL,
	}, nil
}

// RemoveCategoryImage deletes an image stored by UploadCategoryImage.
// Keys outside categories/ are refused.
func (s *ImageUploadService) RemoveCategoryImage(ctx context.Context, key string) error {
	if !strings.HasPrefix(key, categoryImagePrefix) {
		return fmt.Errorf("refusing to delete %q: not a category image", key)
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		return &UpstreamError{Service: "image storage", Err: err}
	}
	return nil
}

// CategoryImageKey builds categories/<level>/<slug>/<unix-millis>-<random><ext>.
// The extension comes from a known file name extension, then from the MIME type,
// and is .bin when neither is recognized.
func CategoryImageKey(level CategoryLevel, slug, fileName, contentType string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, known := mimeByExtension[ext]; !known {
		ext = extensionByMIME[imageMediaType(contentType)]
	}
	if ext == "" {
		ext = ".bin"
	}
	random := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf(categoryImagePrefix+"%s/%s/%d-%s%s", level, SanitizeSlug(slug), now.UnixMilli(), random, ext)
}

// ImageChoice is the image part of a category form.
// File beats URL; Remove beats both.
type ImageChoice struct {
	File   *ImageFile
	URL    string
	Remove bool
}

// ImageGate checks a chosen image before anything is sent to the uploader
type ImageGate struct {
	uploader ImageUploader
}

// NewImageGate creates a gate in front of uploader
func NewImageGate(uploader ImageUploader) *ImageGate {
	return &ImageGate{uploader: uploader}
}

// ResolvedImage is the value a form's image choice turns into
type ResolvedImage struct {
	URL *string
	// Changed is false when the form leaves the current image alone
	Changed bool
	// Key is set when resolving uploaded a new object
	Key string
}

// Resolve turns a form's image choice into the value to store
func (g *ImageGate) Resolve(ctx context.Context, level CategoryLevel, slug string, choice ImageChoice) (ResolvedImage, error) {
	switch {
	case choice.Remove:
		return ResolvedImage{Changed: true}, nil
	case choice.File != nil:
		resp, err := g.upload(ctx, level, slug, choice.File)
		if err != nil {
			return ResolvedImage{}, err
		}
		url := resp.PublicURL
		return ResolvedImage{URL: &url, Changed: true, Key: resp.Path}, nil
	case strings.TrimSpace(choice.URL) != "":
		raw := strings.TrimSpace(choice.URL)
		if err := ValidateImageURL(raw); err != nil {
			return ResolvedImage{}, NewValidationError("image_url", err.Error())
		}
		return ResolvedImage{URL: &raw, Changed: true}, nil
	default:
		return ResolvedImage{}, nil
	}
}

// Discard deletes the object a Resolve call uploaded when the row it was
// meant for could not be written. It is a no-op for anything else.
func (g *ImageGate) Discard(ctx context.Context, img ResolvedImage) error {
	if img.Key == "" || g.uploader == nil {
		return nil
	}
	remover, ok := g.uploader.(ImageRemover)
	if !ok {
		return nil
	}
	return remover.RemoveCategoryImage(ctx, img.Key)
}

func (g *ImageGate) upload(ctx context.Context, level CategoryLevel, slug string, file *ImageFile) (*ImageUploadResponse, error) {
	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if err := ValidateImage(contentType, int64(len(file.Data))); err != nil {
		return nil, fieldError("image", err)
	}
	contentType = imageMediaType(contentType)
	if g.uploader == nil {
		return nil, &UpstreamError{Service: "image upload", Err: errors.New("no uploader configured")}
	}

	resp, err := g.uploader.UploadCategoryImage(ctx, &ImageUploadRequest{
		Level:       string(level),
		Slug:        SanitizeSlug(slug),
		FileName:    file.FileName,
		ContentType: contentType,
		DataURL:     EncodeDataURL(contentType, file.Data),
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, &UpstreamError{Service: "image upload", Err: err}
	}
	if resp == nil || !resp.Success {
		return nil, &UpstreamError{Service: "image upload", Err: errors.New("upload was not successful")}
	}
	if resp.PublicURL == "" {
		return nil, &UpstreamError{Service: "image upload", Err: errors.New("upload response did not include a public URL")}
	}
	return resp, nil
}
