package regdump

import (
	"bytes"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/spf13/afero"
)

func TestEncodeDecode(t *testing.T) {
	ws := []Write{
		{Time: 0, Addr: 0x0f, Val: 0x20},
		{Time: 12, Addr: 0x01, Val: 0x12345678},
		{Time: 1 << 40, Addr: 0x00, Val: 0xffffffff},
	}
	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, ws))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("EMRD")))

	got, err := Decode(&buf)
	assert.NoError(t, err)
	assert.Equal(t, ws, got)
}

func TestDecode_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, nil))

	got, err := Decode(&buf)
	assert.NoError(t, err)
	assert.Len(t, got, 0)
}

func TestDecode_BadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("RIFF\x01garbage")))
	assert.True(t, errors.Is(err, ErrBadMagic))

	_, err = Decode(bytes.NewReader([]byte("EM")))
	assert.True(t, errors.Is(err, ErrBadMagic))
}

func TestDecode_NewerVersion(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("EMRD\x09")))
	assert.True(t, errors.Is(err, ErrVersion))
}

func TestSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec := &Recorder{}
	rec.Record(Write{Time: 3, Addr: 0x0b, Val: 0x1f})
	rec.Record(Write{Time: 5, Addr: 0x0f, Val: 0x00})

	assert.NoError(t, Save(fs, "/out/dump.emrd", rec.Writes))
	got, err := Load(fs, "/out/dump.emrd")
	assert.NoError(t, err)
	assert.Equal(t, rec.Writes, got)

	_, err = Load(fs, "/missing.emrd")
	assert.ErrorContains(t, err, "opening dump file")
}
