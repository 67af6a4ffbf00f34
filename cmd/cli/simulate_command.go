package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticSync/pkg/acousticsync"
	"github.com/himanishpuri/AcousticSync/pkg/logger"
)

// simClock is a manually advanced clock so a simulation runs as fast as
// the matcher allows.
type simClock struct{ t time.Time }

func (c *simClock) Now() time.Time { return c.t }

func (c *simClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// simulation replays a slice of the reference as if it were captured live.
type simulation struct {
	reference []float64
	rate      int
	start     float64 // reference second playback starts at
	duration  time.Duration
	chunk     time.Duration
	tick      time.Duration
	gain      float64
	noise     float64 // stddev of added gaussian noise
	seekAt    time.Duration
	seekTo    float64 // < 0 disables the seek
	seed      int64
}

type simRow struct {
	Elapsed time.Duration
	Truth   float64 // reference second actually playing
	Report  acousticsync.Report
}

func (sim simulation) validate() error {
	if sim.rate <= 0 {
		return acousticsync.ErrInvalidSampleRate
	}
	if sim.chunk <= 0 || sim.tick <= 0 {
		return errors.New("chunk and tick durations must be positive")
	}
	if int(sim.chunk.Seconds()*float64(sim.rate)) < 1 {
		return fmt.Errorf("chunk %s is shorter than one sample", sim.chunk)
	}
	total := float64(len(sim.reference)) / float64(sim.rate)
	if sim.start < 0 || sim.start >= total {
		return fmt.Errorf("start %.2fs is outside the %.2fs reference", sim.start, total)
	}
	if sim.seekTo >= total {
		return fmt.Errorf("seek target %.2fs is outside the %.2fs reference", sim.seekTo, total)
	}
	return nil
}

// run pushes chunks into sess, advancing clock in step, and ticks every
// sim.tick of simulated time. It stops at sim.duration or the end of the
// reference.
func (sim simulation) run(ctx context.Context, sess *acousticsync.Session, clock *simClock) ([]simRow, error) {
	if err := sim.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(sim.seed))
	rate := float64(sim.rate)
	chunkSamples := int(sim.chunk.Seconds() * rate)
	pos := int(sim.start * rate)
	seeked := sim.seekTo < 0

	var rows []simRow
	var elapsed time.Duration
	nextTick := sim.tick

	for elapsed < sim.duration {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		if !seeked && elapsed >= sim.seekAt {
			pos = int(sim.seekTo * rate)
			sess.Seek(sim.seekTo)
			seeked = true
		}
		if pos+chunkSamples > len(sim.reference) {
			break
		}

		chunk := make([]float64, chunkSamples)
		for i := range chunk {
			v := sim.reference[pos+i] * sim.gain
			if sim.noise > 0 {
				v += rng.NormFloat64() * sim.noise
			}
			chunk[i] = v
		}
		sess.PushLiveChunk(chunk)
		pos += chunkSamples
		elapsed += sim.chunk
		clock.Advance(sim.chunk)

		if elapsed >= nextTick {
			r := sess.Tick(ctx)
			rows = append(rows, simRow{Elapsed: elapsed, Truth: float64(pos) / rate, Report: r})
			nextTick += sim.tick
		}
	}
	return rows, nil
}

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var (
		start    float64
		duration time.Duration
		chunk    time.Duration
		gain     float64
		noise    float64
		seekAt   time.Duration
		seekTo   float64
		seed     int64
		journal  string
		title    string
	)

	cmd := &cobra.Command{
		Use:   "simulate <reference>",
		Short: "Replay part of a reference as live audio and show every sync decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			samples, rate, err := ctx.loadAudio(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if journal == "" {
				journal = cfg.JournalPath()
			}
			if title == "" {
				title = cfg.Session.Title
				if title == "untitled" {
					title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				}
			}
			if !cmd.Flags().Changed("seek-to") {
				seekTo = -1
			}

			clock := &simClock{t: time.Now()}
			sess, err := acousticsync.NewSession(
				acousticsync.WithSessionTitle(title),
				acousticsync.WithJournalPath(journal),
				acousticsync.WithClock(clock.Now),
				acousticsync.WithTickInterval(cfg.TickInterval()),
				acousticsync.WithBufferCapacity(cfg.Controller.MaxChunks),
				acousticsync.WithControllerParams(cfg.ControllerParams()),
				acousticsync.WithMatchThresholds(cfg.Thresholds()),
				acousticsync.WithLogger(logger.GetLogger().With("simulate")),
			)
			if err != nil {
				return err
			}
			defer sess.Close()

			durationSeconds := float64(len(samples)) / float64(rate)
			if err := sess.BuildMasterFingerprint(samples, rate, durationSeconds); err != nil {
				return err
			}

			sim := simulation{
				reference: samples,
				rate:      rate,
				start:     start,
				duration:  duration,
				chunk:     chunk,
				tick:      cfg.TickInterval(),
				gain:      gain,
				noise:     noise,
				seekAt:    seekAt,
				seekTo:    seekTo,
				seed:      seed,
			}
			rows, err := sim.run(cmd.Context(), sess, clock)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSimulation(rows))
			if id := sess.SessionID(); id != "" {
				fmt.Fprintf(out, "Journal session: %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 30, "Reference second the simulated playback starts at")
	cmd.Flags().DurationVar(&duration, "duration", 30*time.Second, "Simulated playback length")
	cmd.Flags().DurationVar(&chunk, "chunk", 200*time.Millisecond, "Capture block length")
	cmd.Flags().Float64Var(&gain, "gain", 1, "Gain applied to the live signal")
	cmd.Flags().Float64Var(&noise, "noise", 0, "Standard deviation of gaussian noise added to the live signal")
	cmd.Flags().DurationVar(&seekAt, "seek-at", 0, "Simulated time at which playback jumps (requires --seek-to)")
	cmd.Flags().Float64Var(&seekTo, "seek-to", 0, "Reference second playback jumps to")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Noise seed")
	cmd.Flags().StringVar(&journal, "journal", "", "Record commits, seeks and resyncs to this SQLite journal")
	cmd.Flags().StringVar(&title, "title", "", "Journal session title (default: reference file name)")
	return cmd
}

func renderSimulation(rows []simRow) string {
	headers := []string{"T", "PHASE", "MODE", "STATUS", "CONF", "POSITION", "TRUTH", "ERROR"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight}

	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		r := row.Report
		errCol := "-"
		if r.Locked() || r.Mode == acousticsync.ModeLocal {
			errCol = fmt.Sprintf("%+.2f", r.PositionSeconds-row.Truth)
		}
		status := r.Status.String()
		if r.Verifications > 0 {
			status = fmt.Sprintf("%s %d", status, r.Verifications)
		}
		body = append(body, []string{
			fmt.Sprintf("%.1fs", row.Elapsed.Seconds()),
			r.Phase.String(),
			r.Mode.String(),
			status,
			fmt.Sprintf("%.0f%%", r.ConfidencePercent),
			fmt.Sprintf("%.2f", r.PositionSeconds),
			fmt.Sprintf("%.2f", row.Truth),
			errCol,
		})
	}
	return renderTable(headers, body, aligns)
}
