package jobclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/james-jasvin/Emotion-Recognizer/internal/domain"
	"github.com/james-jasvin/Emotion-Recognizer/internal/metrics"
)

// MaxUploadSize matches the per-file limit the upload widget enforces.
const MaxUploadSize = 20 << 20

const uploadConcurrency = 4

var (
	imageExtensions = map[string]struct{}{"bmp": {}, "jpg": {}, "png": {}, "jpeg": {}, "jpe": {}}
	videoExtensions = map[string]struct{}{"mp4": {}, "avi": {}, "wmv": {}, "flv": {}, "mpeg": {}}
)

// MediaKind classifies a file name by extension.
type MediaKind string

const (
	MediaImage       MediaKind = "image"
	MediaVideo       MediaKind = "video"
	MediaUnsupported MediaKind = ""
)

// KindOf reports whether name is an accepted image or video.
func KindOf(name string) MediaKind {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return MediaUnsupported
	}
	ext := strings.ToLower(name[idx+1:])
	if _, ok := imageExtensions[ext]; ok {
		return MediaImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return MediaVideo
	}
	return MediaUnsupported
}

// Upload posts one file as the multipart field "file" to POST /uploads.
// Unsupported extensions are rejected before any request is made.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) error {
	base := filepath.Base(name)
	kind := KindOf(base)
	if kind == MediaUnsupported {
		metrics.IncUpload("rejected")
		return fmt.Errorf("jobclient: upload %s: %w", base, domain.ErrUnsupportedFormat)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", base)
	if err != nil {
		return fmt.Errorf("jobclient: upload %s: %w", base, err)
	}
	n, err := io.Copy(part, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return fmt.Errorf("jobclient: upload %s: read: %w", base, err)
	}
	if n > MaxUploadSize {
		metrics.IncUpload("rejected")
		return fmt.Errorf("jobclient: upload %s: %w", base, domain.ErrFileTooLarge)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("jobclient: upload %s: %w", base, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("uploads"), &body)
	if err != nil {
		metrics.IncUpload("transport_error")
		return &TransportError{Op: opUpload, Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(opUpload, req)
	if err != nil {
		metrics.IncUpload("transport_error")
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	switch {
	case resp.StatusCode == http.StatusUnsupportedMediaType:
		metrics.IncUpload("rejected")
		return fmt.Errorf("jobclient: upload %s: %w", base, domain.ErrUnsupportedFormat)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		metrics.IncUpload("transport_error")
		return &TransportError{Op: opUpload, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected body: %s", snippet(raw))}
	}
	metrics.IncUpload("ok")
	c.logger.Debug().Str("file", base).Str("kind", string(kind)).Int64("bytes", n).Msg("jobclient: file uploaded")
	return nil
}

// UploadFiles uploads every path, a few at a time, and stops at the first failure.
func (c *Client) UploadFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return domain.ErrNoFiles
	}
	for _, p := range paths {
		if KindOf(filepath.Base(p)) == MediaUnsupported {
			metrics.IncUpload("rejected")
			return fmt.Errorf("jobclient: upload %s: %w", filepath.Base(p), domain.ErrUnsupportedFormat)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, p := range paths {
		p := p
		g.Go(func() error {
			f, err := os.Open(p)
			if err != nil {
				return fmt.Errorf("jobclient: upload %s: %w", filepath.Base(p), err)
			}
			defer f.Close()
			return c.Upload(gctx, p, f)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	c.logger.Info().Int("files", len(paths)).Msg("jobclient: uploads complete")
	return nil
}
