package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultSampleRate is the rate references are resampled to by ffmpeg.
const DefaultSampleRate = 11025

type ConvertWAVConfig struct {
	SampleRate int // e.g. 11025, 22050, 44100
	// Timeout bounds the ffmpeg run when ctx has no deadline. Full-length
	// references take a while.
	Timeout time.Duration
}

// ConvertToMonoWAV converts an audio file to mono 16-bit PCM WAV
// and saves it to outputDir as <basename>.wav.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(outputDir, baseName+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		return "", fmt.Errorf("failed to move %s to %s: %w", tmpPath, outputPath, err)
	}

	return outputPath, nil
}

// LoadMono returns mono samples and their rate for any audio file. WAV is
// decoded directly; everything else goes through ffmpeg into tempDir at
// sampleRate.
func LoadMono(ctx context.Context, path, tempDir string, sampleRate int) ([]float64, int, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, rate, err := ReadWavAsFloat64(path)
		if err == nil {
			return samples, rate, nil
		}
		// mislabelled or compressed WAV: let ffmpeg have a go
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, 0, err
		}
	}

	wavPath, err := ConvertToMonoWAV(ctx, path, tempDir, ConvertWAVConfig{SampleRate: sampleRate})
	if err != nil {
		return nil, 0, fmt.Errorf("audio conversion failed: %w", err)
	}
	defer os.Remove(wavPath)

	samples, rate, err := ReadWavAsFloat64(wavPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read converted WAV: %w", err)
	}
	return samples, rate, nil
}
