package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
	"github.com/user-none/emes/config"
	"github.com/user-none/emes/emu"
	"golang.org/x/sync/errgroup"
)

// dumpExt is appended to song names for dumps in batch mode.
const dumpExt = ".emrd"

// Job is the work for one song in a batch.
type Job struct {
	Song string
	WAV  string
	Dump string
}

// PlanJobs maps the songs in opts to output files. With a single song the
// -wav and -dump values are file names, otherwise they name directories.
func PlanJobs(opts config.Options) []Job {
	jobs := make([]Job, 0, len(opts.Songs))
	single := len(opts.Songs) == 1
	for _, path := range opts.Songs {
		job := Job{Song: path, WAV: opts.WAV, Dump: opts.Dump}
		if !single {
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if opts.WAV != "" {
				job.WAV = filepath.Join(opts.WAV, base+".wav")
			}
			if opts.Dump != "" {
				job.Dump = filepath.Join(opts.Dump, base+dumpExt)
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// RenderAll renders every song in opts offline. Songs are processed in
// parallel; the first failure cancels the rest.
func RenderAll(ctx context.Context, logger *log.Logger, fs afero.Fs, opts config.Options) error {
	jobs := PlanJobs(opts)
	if len(jobs) > 1 {
		for _, dir := range []string{opts.WAV, opts.Dump} {
			if dir == "" {
				continue
			}
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}
	}

	frames := int(opts.Seconds * emu.OutputRate)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, job := range jobs {
		g.Go(func() error {
			return renderJob(ctx, logger, fs, opts, job, frames)
		})
	}
	return g.Wait()
}

func renderJob(ctx context.Context, logger *log.Logger, fs afero.Fs, opts config.Options, job Job, frames int) error {
	jobOpts := opts
	jobOpts.Dump = job.Dump
	e, err := NewEngine(fs, job.Song, jobOpts)
	if err != nil {
		return err
	}
	logger.Debug("Rendering song",
		log.String("song", job.Song),
		log.String("chip", e.Song.Chip),
		log.Int("voices", e.Song.Voices),
		log.Int("frames", frames))

	if job.WAV != "" {
		err = WriteWAV(ctx, fs, job.WAV, e, frames)
	} else {
		err = Render(ctx, e, frames)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", job.Song, err)
	}

	if job.Dump != "" {
		if err := e.SaveDump(fs, job.Dump); err != nil {
			return fmt.Errorf("saving dump for %s: %w", job.Song, err)
		}
		logger.Debug("Saved register dump",
			log.String("file", job.Dump),
			log.Int("writes", len(e.Captured())))
	}
	if n := e.IRQOverruns(); n > 0 {
		logger.Warn("IRQ service overran", log.String("song", job.Song), log.Int("count", n))
	}

	logger.Info("Rendered song", log.String("song", job.Song), log.String("wav", job.WAV))
	return nil
}
