// Package cli implements the command line player: flag parsing, offline
// WAV rendering and live playback with audio driven timing.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/user-none/emes/config"
)

// ParseFlags parses command line flags into player options.
func ParseFlags() (config.Options, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts := config.DefaultOptions()
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	opts.Songs = append(opts.Songs, flags.Args()...)
	if err != nil || len(opts.Songs) == 0 {
		return opts, &UsageError{flags: flags}
	}

	if err := opts.Validate(); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	if e.msg != "" {
		fmt.Printf("error: %s\n\n", e.msg)
	}
	fmt.Printf("usage: emes [options] <song.json>...\n\n")
	e.flags.PrintDefaults()
	fmt.Println()
}

// songList collects repeated -song flags.
type songList struct {
	songs *[]string
}

func (s songList) String() string {
	if s.songs == nil {
		return ""
	}
	return strings.Join(*s.songs, ",")
}

func (s songList) Set(v string) error {
	*s.songs = append(*s.songs, v)
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *config.Options) {
	flags.Var(songList{&opts.Songs}, "song", "song file to play, may be repeated")
	flags.StringVar(&opts.WAV, "wav", "", "render to this .wav file, or directory when several songs are given")
	flags.Float64Var(&opts.Seconds, "seconds", config.DefaultSeconds, "seconds of audio to render")
	flags.BoolVar(&opts.Play, "play", false, "play the song on the default audio device")
	flags.StringVar(&opts.Dump, "dump", "", "capture every chip register write to this file")
	flags.StringVar(&opts.Inject, "inject", "", "poke a captured register dump into the chip before playback")
	flags.IntVar(&opts.Voices, "voices", 0, "override the song's ES5506 voice count (4-32)")
	flags.Float64Var(&opts.Volume, "volume", config.DefaultVolume, "playback volume (0-1)")
	flags.Float64Var(&opts.CutoffHz, "cutoff", config.DefaultCutoffHz, "output low-pass cutoff in Hz, 0 disables")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
