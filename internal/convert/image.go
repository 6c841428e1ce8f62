package convert

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ImageConverter re-encodes raster images in-process. Decoding goes through
// imaging (jpg/png/gif/tiff/bmp) with webp handled separately since the
// standard encoders do not cover it.
type ImageConverter struct{}

// NewImageConverter creates the in-process image converter.
func NewImageConverter() *ImageConverter {
	return &ImageConverter{}
}

func (c *ImageConverter) Convert(ctx context.Context, inputPath, outputPath, targetFormat string, onProgress ProgressFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	report(onProgress, 10, "decoding image")
	img, err := decodeImage(inputPath)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	report(onProgress, 60, "encoding image")
	if targetFormat == "webp" {
		var buf []byte
		buf, err = webp.EncodeRGBA(img, 90)
		if err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
		if err := os.WriteFile(outputPath, buf, 0o644); err != nil {
			return fmt.Errorf("write webp: %w", err)
		}
		return nil
	}

	if _, err := imaging.FormatFromExtension(targetFormat); err != nil {
		return fmt.Errorf("target format %q: %w", targetFormat, err)
	}
	// imaging.Save picks the encoder from the output extension
	if err := imaging.Save(img, outputPath, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("encode %s: %w", targetFormat, err)
	}
	return nil
}

// decodeImage loads a source image, routing webp to its dedicated decoder.
func decodeImage(inputPath string) (image.Image, error) {
	if strings.EqualFold(filepath.Ext(inputPath), ".webp") {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return webp.Decode(f)
	}
	return imaging.Open(inputPath)
}

func report(onProgress ProgressFunc, percent int, detail string) {
	if onProgress != nil {
		onProgress(percent, detail)
	}
}
