package convert

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpegConverter transcodes audio and video through the ffmpeg binary.
// The target container/codec is inferred by ffmpeg from the output extension.
type FFmpegConverter struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFmpegConverter creates an ffmpeg-backed converter using binaries on PATH.
func NewFFmpegConverter() *FFmpegConverter {
	return &FFmpegConverter{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// Convert runs ffmpeg over the input and reports percentage derived from the
// probed duration. When the duration cannot be probed the conversion still
// runs, just without intermediate progress.
func (c *FFmpegConverter) Convert(ctx context.Context, inputPath, outputPath, targetFormat string, onProgress ProgressFunc) error {
	duration, _ := c.probeDuration(ctx, inputPath)
	totalMs := int64(duration * 1000)

	args := []string{"-y", "-i", inputPath, "-progress", "pipe:1", "-nostats", outputPath}
	cmd := exec.CommandContext(ctx, c.FFmpegPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	lastProgress := 0
	for scanner.Scan() {
		percent, ok := parseProgressLine(scanner.Text(), totalMs)
		if !ok || percent <= lastProgress {
			continue
		}
		lastProgress = percent
		if onProgress != nil {
			onProgress(percent, "transcoding")
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// parseProgressLine extracts a 0-99 percentage from an ffmpeg `-progress`
// key=value line. Returns false for lines that carry no usable progress.
func parseProgressLine(line string, totalMs int64) (int, bool) {
	if totalMs <= 0 {
		return 0, false
	}
	line = strings.TrimSpace(line)
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 || parts[0] != "out_time_ms" {
		return 0, false
	}
	// out_time_ms is in microseconds despite the name
	us, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, false
	}
	percent := int(float64(us/1000) / float64(totalMs) * 100)
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}
	return percent, true
}

func (c *FFmpegConverter) probeDuration(ctx context.Context, inputPath string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=nokey=1:noprint_wrappers=1",
		inputPath,
	}
	cmd := exec.CommandContext(ctx, c.FFprobePath, args...)
	out, err := cmd.Output()
	if err != nil {
		return 0, err
	}
	value := strings.TrimSpace(string(out))
	if value == "" {
		return 0, fmt.Errorf("duration missing")
	}
	return strconv.ParseFloat(value, 64)
}
