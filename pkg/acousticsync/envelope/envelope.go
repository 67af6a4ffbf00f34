// Package envelope reduces PCM audio to a coarse RMS energy envelope.
//
// The same extractor builds the master fingerprint of a reference track and
// every short live fingerprint, so both sides of a match share one time base.
package envelope

import "math"

// DefaultRateHz is the envelope rate used for every fingerprint.
const DefaultRateHz = 20

// Fingerprint is an envelope together with the time base it was built at.
type Fingerprint struct {
	Envelope        []float64
	DurationSeconds float64
	RateHz          int
}

// Seconds returns the span of signal covered by the envelope.
func (f Fingerprint) Seconds() float64 {
	if f.RateHz <= 0 {
		return 0
	}
	return float64(len(f.Envelope)) / float64(f.RateHz)
}

// Extract builds the envelope of samples recorded at sourceRateHz.
// The duration is derived from the sample count.
func Extract(samples []float64, sourceRateHz, targetRateHz int) []float64 {
	if sourceRateHz <= 0 {
		return nil
	}
	duration := float64(len(samples)) / float64(sourceRateHz)
	return ExtractDuration(samples, sourceRateHz, duration, targetRateHz)
}

// ExtractDuration builds an envelope of floor(durationSeconds*targetRateHz)
// points. Each point is the RMS of a window of floor(sourceRateHz/targetRateHz)
// samples. Windows past the end of samples contribute zero. A non-positive
// source rate or duration yields nil.
func ExtractDuration(samples []float64, sourceRateHz int, durationSeconds float64, targetRateHz int) []float64 {
	if targetRateHz <= 0 {
		targetRateHz = DefaultRateHz
	}
	if sourceRateHz <= 0 || durationSeconds <= 0 {
		return nil
	}

	step := sourceRateHz / targetRateHz
	totalPoints := int(math.Floor(durationSeconds * float64(targetRateHz)))
	out := make([]float64, totalPoints)
	if step == 0 {
		return out
	}

	for i := 0; i < totalPoints; i++ {
		start := i * step
		if start >= len(samples) {
			break
		}
		end := min(start+step, len(samples))

		var sumSq float64
		for _, s := range samples[start:end] {
			sumSq += s * s
		}
		// end > start here, the window is never empty
		out[i] = math.Sqrt(sumSq / float64(end-start))
	}
	return out
}

// Build returns a Fingerprint at DefaultRateHz.
func Build(samples []float64, sourceRateHz int, durationSeconds float64) Fingerprint {
	return Fingerprint{
		Envelope:        ExtractDuration(samples, sourceRateHz, durationSeconds, DefaultRateHz),
		DurationSeconds: durationSeconds,
		RateHz:          DefaultRateHz,
	}
}
