package uploader

import (
	"bytes"
	"log/slog"

	"github.com/disintegration/imaging"
)

// SourceFile is one user-selected file entering the pipeline.
type SourceFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Preprocessor prepares a source file for upload: a (possibly compressed)
// original payload, and a best-effort thumbnail. A nil thumbnail means
// derivation failed; the original must still be uploaded.
type Preprocessor interface {
	Preprocess(file SourceFile) (original []byte, thumbnail []byte)
}

// ImagePreprocessor compresses JPEG originals and derives JPEG thumbnails
// in memory. Both steps are best-effort optimizations: any decode or encode
// failure falls back to the untouched original bytes.
type ImagePreprocessor struct {
	// Quality is the JPEG quality used for re-encoding. High enough to be
	// visually lossless for event photography.
	Quality int

	// ThumbSize is the bounding box (both axes) thumbnails are fitted into.
	ThumbSize int
}

// NewImagePreprocessor returns a preprocessor with production defaults.
func NewImagePreprocessor() *ImagePreprocessor {
	return &ImagePreprocessor{Quality: 85, ThumbSize: 480}
}

// Preprocess decodes the image once and produces both artifacts. It performs
// no network calls and never fails the batch: an undecodable file is passed
// through unchanged with no thumbnail.
func (p *ImagePreprocessor) Preprocess(f SourceFile) ([]byte, []byte) {
	img, err := imaging.Decode(bytes.NewReader(f.Data), imaging.AutoOrientation(true))
	if err != nil {
		slog.Warn("preprocess: decode failed, passing original through",
			slog.String("file", f.Name), slog.String("error", err.Error()))
		return f.Data, nil
	}

	original := f.Data
	// Only re-encode JPEG sources; transcoding PNGs would change the
	// declared content type out from under the broker request.
	if f.ContentType == "image/jpeg" {
		var buf bytes.Buffer
		err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.Quality))
		if err == nil && buf.Len() < len(f.Data) {
			original = append([]byte(nil), buf.Bytes()...)
		}
	}

	thumb := imaging.Fit(img, p.ThumbSize, p.ThumbSize, imaging.Lanczos)
	var tbuf bytes.Buffer
	if err := imaging.Encode(&tbuf, thumb, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		slog.Warn("preprocess: thumbnail encode failed",
			slog.String("file", f.Name), slog.String("error", err.Error()))
		return original, nil
	}

	return original, tbuf.Bytes()
}
