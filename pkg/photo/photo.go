// Package photo decodes portrait uploads, normalises them to a bounded JPEG
// and round-trips them through data URLs so a stateless page can carry the
// image between requests.
package photo

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	DefaultMaxBytes     int64 = 8 << 20
	DefaultMaxDimension       = 1024
	DefaultQuality            = 85

	// ContentType is the type of every normalised photo.
	ContentType = "image/jpeg"
)

var (
	ErrMissing         = errors.New("photo: no photo attached")
	ErrTooLarge        = errors.New("photo: file exceeds size limit")
	ErrUnsupportedType = errors.New("photo: unsupported image type")
	ErrInvalid         = errors.New("photo: image could not be decoded")
)

var supportedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Photo is a normalised portrait.
type Photo struct {
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Empty reports whether the photo carries no data.
func (p Photo) Empty() bool {
	return len(p.Data) == 0
}

// Options bound the accepted uploads.
type Options struct {
	MaxBytes     int64
	MaxDimension int
	Quality      int
}

// Option mutates Options.
type Option func(*Options)

// WithMaxBytes caps the raw upload size.
func WithMaxBytes(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxBytes = n
		}
	}
}

// WithMaxDimension caps the longest side of the normalised image.
func WithMaxDimension(px int) Option {
	return func(o *Options) {
		if px > 0 {
			o.MaxDimension = px
		}
	}
}

// WithQuality sets the JPEG quality used when re-encoding.
func WithQuality(q int) Option {
	return func(o *Options) {
		if q > 0 && q <= 100 {
			o.Quality = q
		}
	}
}

func newOptions(options ...Option) Options {
	cfg := Options{
		MaxBytes:     DefaultMaxBytes,
		MaxDimension: DefaultMaxDimension,
		Quality:      DefaultQuality,
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Decode reads an upload, checks its size and content type, and returns the
// normalised JPEG.
func Decode(ctx context.Context, r io.Reader, options ...Option) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, err
	}
	if r == nil {
		return Photo{}, ErrMissing
	}
	cfg := newOptions(options...)

	raw, err := io.ReadAll(io.LimitReader(r, cfg.MaxBytes+1))
	if err != nil {
		return Photo{}, fmt.Errorf("photo: read upload: %w", err)
	}
	if len(raw) == 0 {
		return Photo{}, ErrMissing
	}
	if int64(len(raw)) > cfg.MaxBytes {
		return Photo{}, ErrTooLarge
	}

	mime := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mime.String(), supportedTypes...) {
		return Photo{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := ctx.Err(); err != nil {
		return Photo{}, err
	}
	return normalise(img, cfg)
}

func normalise(src image.Image, cfg Options) (Photo, error) {
	bounds := src.Bounds()
	width, height := fit(bounds.Dx(), bounds.Dy(), cfg.MaxDimension)
	if width == 0 || height == 0 {
		return Photo{}, ErrInvalid
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	// JPEG has no alpha; flatten transparent uploads onto white.
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: cfg.Quality}); err != nil {
		return Photo{}, fmt.Errorf("photo: encode: %w", err)
	}
	return Photo{
		ContentType: ContentType,
		Data:        buf.Bytes(),
		Width:       width,
		Height:      height,
	}, nil
}

// fit scales w×h so the longest side is at most limit, keeping the ratio.
func fit(w, h, limit int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// Image decodes the stored JPEG.
func (p Photo) Image() (image.Image, error) {
	if p.Empty() {
		return nil, ErrMissing
	}
	img, _, err := image.Decode(bytes.NewReader(p.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return img, nil
}

// DataURL encodes the photo as a base64 data URL.
func (p Photo) DataURL() string {
	if p.Empty() {
		return ""
	}
	contentType := p.ContentType
	if contentType == "" {
		contentType = ContentType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// FromDataURL restores a photo previously produced by DataURL. The payload is
// sniffed again; the declared type is not trusted.
func FromDataURL(value string, options ...Option) (Photo, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Photo{}, ErrMissing
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return Photo{}, fmt.Errorf("%w: malformed data url", ErrInvalid)
	}
	cfg := newOptions(options...)
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > cfg.MaxBytes+2 {
		return Photo{}, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if int64(len(data)) > cfg.MaxBytes {
		return Photo{}, ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), supportedTypes...) {
		return Photo{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}
	cfgImg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Photo{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Photo{
		ContentType: mime.String(),
		Data:        data,
		Width:       cfgImg.Width,
		Height:      cfgImg.Height,
	}, nil
}

// MessageKey maps a photo error to its catalog key.
func MessageKey(err error) string {
	switch {
	case errors.Is(err, ErrMissing):
		return "validation.photo.required"
	case errors.Is(err, ErrTooLarge):
		return "validation.photo.tooLarge"
	case errors.Is(err, ErrUnsupportedType):
		return "validation.photo.unsupported"
	default:
		return "validation.photo.invalid"
	}
}
