package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWav is returned for input that has no RIFF/WAVE header.
var ErrNotWav = errors.New("not a WAV/RIFF file")

// ReadWavAsFloat64 reads a PCM WAV file and returns mono samples normalized
// to [-1,1] along with the sample rate.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	samples, rate, err := DecodeWav(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return samples, rate, nil
}

// DecodeWav decodes PCM WAV data of any bit depth and channel count.
// Channels are averaged to mono.
func DecodeWav(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrNotWav
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM: %w", err)
	}
	if dec.WavAudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported WAV audio format %d: only PCM (1) supported", dec.WavAudioFormat)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	mono, err := toMono(buf, bitDepth)
	if err != nil {
		return nil, 0, err
	}
	return mono, int(dec.SampleRate), nil
}

// toMono averages interleaved channels and scales by the bit depth.
func toMono(buf *goaudio.IntBuffer, bitDepth int) ([]float64, error) {
	if buf == nil || buf.Format == nil {
		return nil, errors.New("missing PCM format")
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bits per sample: %d", bitDepth)
	}

	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	// 8-bit PCM is unsigned
	var bias int
	if bitDepth == 8 {
		bias = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch] - bias)
		}
		out[i] = sum / float64(channels) * scale
	}
	return out, nil
}
