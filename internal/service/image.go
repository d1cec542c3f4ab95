package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// Decoders beyond the jpeg/png/gif set imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/crlx1q/Tester-FLAI/internal/domain"
	"github.com/crlx1q/Tester-FLAI/internal/metrics"
	"github.com/crlx1q/Tester-FLAI/internal/storage"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ImageService turns raw uploads into stored-ready JPEGs.
//
// Every entry point applies the same steps: size gate, EXIF orientation,
// downscale into the purpose's box, JPEG recompression. Callers only ever
// see a domain.Image.
type ImageService interface {
	// ProcessUpload streams r to staging storage, then processes it.
	// The staged object is always removed afterwards.
	// Returns domain.ETOOLARGE over the size gate, domain.EINVALID for
	// unsupported content and domain.EPROCESSING when decoding fails.
	ProcessUpload(ctx context.Context, r io.Reader, filename string, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error)

	// ProcessBase64 processes a base64 payload. A data: prefix is tolerated.
	ProcessBase64(ctx context.Context, payload string, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error)
}

// =============================================================================
// Implementation
// =============================================================================

type imageService struct {
	staging storage.Storage
	logger  *slog.Logger
}

var _ ImageService = (*imageService)(nil)

// NewImageService creates a new ImageService staging uploads in st.
func NewImageService(st storage.Storage, logger *slog.Logger) ImageService {
	return &imageService{
		staging: st,
		logger:  logger,
	}
}

func (s *imageService) ProcessUpload(ctx context.Context, r io.Reader, filename string, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error) {
	const op = "ImageService.ProcessUpload"

	ceiling := int64(domain.MaxUploadSize)
	if !isPro {
		ceiling = domain.FreeUploadLimit
	}

	key := storage.StagingKey(string(purpose), filename)
	counted := &countingReader{r: r}
	info, err := s.staging.Put(ctx, key, counted, storage.PutOptions{MaxSize: ceiling})
	defer s.discard(key)
	if err != nil {
		if storage.IsTooLarge(err) {
			// Staging stops just past the ceiling; read on to report the real size.
			_, _ = io.Copy(io.Discard, io.LimitReader(counted, maxUploadDrain-counted.n))
			return nil, domain.PayloadTooLarge(op, counted.n, ceiling)
		}
		return nil, domain.Internal(err, op, "Failed to receive upload")
	}

	rc, _, err := s.staging.Get(ctx, key)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read staged upload")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read staged upload")
	}

	s.logger.Debug("upload staged", "key", key, "size", info.Size, "purpose", purpose)
	return s.process(op, data, purpose, isPro)
}

func (s *imageService) ProcessBase64(ctx context.Context, payload string, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error) {
	const op = "ImageService.ProcessBase64"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := domain.ParseDataURI(payload)
	if err != nil {
		return nil, err
	}
	return s.process(op, data, purpose, isPro)
}

// process runs the shared pipeline on raw bytes. The declared content type
// of the upload is ignored; only the sniffed one counts.
func (s *imageService) process(op string, data []byte, purpose domain.ImagePurpose, isPro bool) (*domain.Image, error) {
	if err := domain.ValidateUploadSize(int64(len(data)), isPro); err != nil {
		return nil, err
	}

	detected := mimetype.Detect(data).String()
	if !domain.IsValidImageContentType(detected) {
		return nil, domain.Invalid(op, "Unsupported image type: "+detected)
	}

	img, err := Transcode(data, domain.PresetFor(purpose))
	metrics.ImageProcessed(string(purpose), len(data), imageSize(img), err)
	if errors.Is(err, ErrTooManyPixels) {
		s.logger.Warn("image rejected", "purpose", purpose, "content_type", detected, "error", err)
		return nil, domain.Invalid(op, "Image dimensions are too large")
	}
	if err != nil {
		s.logger.Warn("image processing failed", "purpose", purpose, "content_type", detected, "error", err)
		return nil, domain.ProcessingFailure(err, op)
	}

	s.logger.Debug("image processed",
		"purpose", purpose,
		"raw_bytes", len(data),
		"processed_bytes", len(img.Data),
		"width", img.Width,
		"height", img.Height,
	)
	return img, nil
}

// maxUploadDrain bounds how much of an oversized upload is read just to
// measure it. Matches the multipart body cap of the HTTP layer.
const maxUploadDrain = domain.MaxUploadSize + 1<<20

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (s *imageService) discard(key string) {
	// The request context may already be cancelled; cleanup must still run.
	if err := s.staging.Delete(context.Background(), key); err != nil && !storage.IsNotFound(err) {
		s.logger.Warn("failed to delete staged upload", "key", key, "error", err)
	}
}

// =============================================================================
// Transcoding
// =============================================================================

// ErrTooManyPixels is returned by Transcode for images whose header declares
// more than domain.MaxImagePixels.
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// Transcode decodes data, applies EXIF orientation, fits it into the preset's
// box without upscaling and re-encodes it as JPEG. Only the header is read
// for images over domain.MaxImagePixels.
func Transcode(data []byte, preset domain.ImagePreset) (*domain.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > domain.MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	// imaging.Fit returns an unscaled copy when src already fits.
	dst := imaging.Fit(src, preset.MaxWidth, preset.MaxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.JPEG, imaging.JPEGQuality(preset.Quality)); err != nil {
		return nil, err
	}

	bounds := dst.Bounds()
	return &domain.Image{
		Data:        buf.Bytes(),
		ContentType: domain.OutputContentType,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

func imageSize(img *domain.Image) int {
	if img == nil {
		return 0
	}
	return len(img.Data)
}
