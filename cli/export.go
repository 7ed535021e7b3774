package cli

import (
	"context"
	"fmt"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"github.com/user-none/emes/emu"
)

// exportChunk is the number of frames rendered between cancellation checks.
const exportChunk = emu.OutputRate / 10

// Render renders frames stereo frames from e without writing them anywhere.
func Render(ctx context.Context, e *Engine, frames int) error {
	buf := make([]int16, 2*exportChunk)
	for done := 0; done < frames; done += exportChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(exportChunk, frames-done)
		e.Render(buf[:2*n])
	}
	return nil
}

// WriteWAV renders frames stereo frames from e into a 16-bit WAV file.
func WriteWAV(ctx context.Context, fs afero.Fs, path string, e *Engine, frames int) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, emu.OutputRate, 16, 2, 1)
	buf := make([]int16, 2*exportChunk)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  emu.OutputRate,
		},
		Data:           make([]int, 0, len(buf)),
		SourceBitDepth: 16,
	}

	for done := 0; done < frames; done += exportChunk {
		if err := ctx.Err(); err != nil {
			enc.Close()
			return err
		}
		n := min(exportChunk, frames-done)
		e.Render(buf[:2*n])

		intBuf.Data = intBuf.Data[:0]
		for _, s := range buf[:2*n] {
			intBuf.Data = append(intBuf.Data, int(s))
		}
		if err := enc.Write(intBuf); err != nil {
			enc.Close()
			return fmt.Errorf("writing samples: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing wav file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing wav file: %w", err)
	}
	return nil
}
