package audio

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWav encodes interleaved integer PCM to a file in t.TempDir().
func writeTestWav(t *testing.T, name string, rate, bitDepth, channels int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to encode WAV: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize WAV: %v", err)
	}
	return path
}

func TestReadWavAsFloat64Mono(t *testing.T) {
	data := []int{0, 16384, -16384, 32767, -32768}
	path := writeTestWav(t, "mono.wav", 8000, 16, 1, data)

	samples, rate, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("Expected rate 8000, got %d", rate)
	}
	want := []float64{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
	if len(samples) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(samples))
	}
	for i := range want {
		if math.Abs(samples[i]-want[i]) > 1e-9 {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], samples[i])
		}
	}
}

func TestReadWavAsFloat64Stereo(t *testing.T) {
	// L/R pairs
	data := []int{16384, -16384, 16384, 16384, -32768, 0}
	path := writeTestWav(t, "stereo.wav", 44100, 16, 2, data)

	samples, rate, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	if rate != 44100 {
		t.Errorf("Expected rate 44100, got %d", rate)
	}
	want := []float64{0, 0.5, -0.5}
	if len(samples) != len(want) {
		t.Fatalf("Expected %d frames, got %d", len(want), len(samples))
	}
	for i := range want {
		if math.Abs(samples[i]-want[i]) > 1e-9 {
			t.Errorf("Frame %d: expected %f, got %f", i, want[i], samples[i])
		}
	}
}

func TestReadWavAsFloat64Range(t *testing.T) {
	data := make([]int, 2000)
	for i := range data {
		data[i] = int(32767 * math.Sin(float64(i)*0.05))
	}
	path := writeTestWav(t, "sine.wav", 11025, 16, 1, data)

	samples, _, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("Sample %d out of range: %f", i, s)
		}
	}
}

func TestDecodeWavInvalid(t *testing.T) {
	_, _, err := DecodeWav(bytes.NewReader([]byte("INVALID HEADER DATA")))
	if !errors.Is(err, ErrNotWav) {
		t.Errorf("Expected ErrNotWav, got %v", err)
	}
}

func TestReadWavAsFloat64NonExistent(t *testing.T) {
	if _, _, err := ReadWavAsFloat64("nonexistent.wav"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestToMono(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		bitDepth int
		data     []int
		want     []float64
		wantErr  bool
	}{
		{"mono 16", 1, 16, []int{16384}, []float64{0.5}, false},
		{"stereo 16", 2, 16, []int{32767, -32767}, []float64{0}, false},
		{"mono 24", 1, 24, []int{1 << 22}, []float64{0.5}, false},
		{"unsigned 8", 1, 8, []int{128, 192}, []float64{0, 0.5}, false},
		{"no channels", 0, 16, []int{1}, nil, true},
		{"bad depth", 1, 4, []int{1}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &goaudio.IntBuffer{Format: &goaudio.Format{NumChannels: tt.channels}, Data: tt.data}
			got, err := toMono(buf, tt.bitDepth)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d samples, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-9 {
					t.Errorf("Sample %d: expected %f, got %f", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestLoadMonoWav(t *testing.T) {
	path := writeTestWav(t, "ref.WAV", 8000, 16, 1, []int{0, 8192, 0, -8192})

	samples, rate, err := LoadMono(context.Background(), path, t.TempDir(), 0)
	if err != nil {
		t.Fatalf("LoadMono failed: %v", err)
	}
	if rate != 8000 || len(samples) != 4 {
		t.Errorf("Expected 4 samples at 8000 Hz, got %d at %d", len(samples), rate)
	}
}

func TestConvertToMonoWAV(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	data := make([]int, 2*44100)
	for i := 0; i < len(data); i += 2 {
		v := int(16000 * math.Sin(float64(i)*0.01))
		data[i], data[i+1] = v, v
	}
	src := writeTestWav(t, "stereo-src.wav", 44100, 16, 2, data)
	outDir := t.TempDir()

	out, err := ConvertToMonoWAV(context.Background(), src, outDir, ConvertWAVConfig{SampleRate: 8000})
	if err != nil {
		t.Fatalf("ConvertToMonoWAV failed: %v", err)
	}
	if filepath.Dir(out) != outDir || filepath.Ext(out) != ".wav" {
		t.Errorf("Unexpected output path %s", out)
	}

	samples, rate, err := ReadWavAsFloat64(out)
	if err != nil {
		t.Fatalf("Reading converted file failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("Expected 8000 Hz, got %d", rate)
	}
	// one second of audio, give or take resampler edges
	if len(samples) < 7900 || len(samples) > 8100 {
		t.Errorf("Expected ~8000 samples, got %d", len(samples))
	}
}
