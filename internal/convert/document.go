package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const pdfaConformance = "PDF/A-2b"

// DocumentConverter delegates document conversion to a Gotenberg instance.
// Office and plain-text sources go through the LibreOffice route; pdf sources
// are re-normalized through the pdfengines route.
type DocumentConverter struct {
	baseURL string
	client  *http.Client
}

// NewDocumentConverter creates a Gotenberg-backed document converter.
func NewDocumentConverter(baseURL string) *DocumentConverter {
	return &DocumentConverter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 0, // use context timeout instead
		},
	}
}

func (c *DocumentConverter) Convert(ctx context.Context, inputPath, outputPath, targetFormat string, onProgress ProgressFunc) error {
	if targetFormat != "pdf" {
		return fmt.Errorf("document conversion supports pdf targets only, got %q", targetFormat)
	}

	route := "/forms/libreoffice/convert"
	if strings.EqualFold(filepath.Ext(inputPath), ".pdf") {
		route = "/forms/pdfengines/convert"
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	report(onProgress, 10, "uploading to document engine")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("files", filepath.Base(inputPath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := writer.WriteField("pdfa", pdfaConformance); err != nil {
		return fmt.Errorf("write pdfa field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	report(onProgress, 40, "converting document")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("document engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("document engine returned status %d: %s", resp.StatusCode, string(msg))
	}

	report(onProgress, 80, "saving output")

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		_ = os.Remove(outputPath)
		return fmt.Errorf("save converted file: %w", err)
	}
	return out.Close()
}
