// Package regdump reads and writes captured chip register write logs.
//
// A dump is a 4 byte magic, a version byte and a zstd compressed stream of
// fixed size big-endian records.
package regdump

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

const (
	magic      = "EMRD"
	version    = 1
	recordSize = 16
)

var (
	// ErrBadMagic is returned when the input is not a register dump.
	ErrBadMagic = errors.New("not a register dump")
	// ErrVersion is returned for dumps written by a newer format version.
	ErrVersion = errors.New("unsupported dump version")
)

// Write is one register write. Time counts output samples at the chip's
// native rate since the engine started.
type Write struct {
	Time uint64
	Addr uint32
	Val  uint32
}

// Encode writes ws to w.
func Encode(w io.Writer, ws []Write) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.Write([]byte{version}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	bw := bufio.NewWriter(enc)
	var rec [recordSize]byte
	for _, wr := range ws {
		binary.BigEndian.PutUint64(rec[0:], wr.Time)
		binary.BigEndian.PutUint32(rec[8:], wr.Addr)
		binary.BigEndian.PutUint32(rec[12:], wr.Val)
		if _, err := bw.Write(rec[:]); err != nil {
			enc.Close()
			return fmt.Errorf("writing record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing stream: %w", err)
	}
	return nil
}

// Decode reads a dump written by Encode.
func Decode(r io.Reader) ([]Write, error) {
	var hdr [len(magic) + 1]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if string(hdr[:len(magic)]) != magic {
		return nil, ErrBadMagic
	}
	if hdr[len(magic)] > version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, hdr[len(magic)])
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}
	defer dec.Close()

	var ws []Write
	var rec [recordSize]byte
	for {
		_, err := io.ReadFull(dec, rec[:])
		if errors.Is(err, io.EOF) {
			return ws, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", len(ws), err)
		}
		ws = append(ws, Write{
			Time: binary.BigEndian.Uint64(rec[0:]),
			Addr: binary.BigEndian.Uint32(rec[8:]),
			Val:  binary.BigEndian.Uint32(rec[12:]),
		})
	}
}

// Save writes ws to path on fs.
func Save(fs afero.Fs, path string, ws []Write) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating dump file: %w", err)
	}
	if err := Encode(f, ws); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing dump file: %w", err)
	}
	return nil
}

// Load reads the dump at path on fs.
func Load(fs afero.Fs, path string) ([]Write, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump file: %w", err)
	}
	defer f.Close()
	ws, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return ws, nil
}

// Recorder collects writes from a capture hook.
type Recorder struct {
	Writes []Write
}

// Record appends w. It has the signature of a dispatch capture hook.
func (r *Recorder) Record(w Write) {
	r.Writes = append(r.Writes, w)
}
