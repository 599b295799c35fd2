package audio

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffContainer(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"wav", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), FormatWAV},
		{"flac", []byte("fLaC\x00\x00"), FormatFLAC},
		{"ogg", []byte("OggS\x00\x02"), FormatOGG},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, FormatWEBM},
		{"amr", []byte("#!AMR\n"), FormatAMR},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A \x00\x00"), FormatM4A},
		{"mp4", []byte("\x00\x00\x00\x18ftypisom\x00\x00"), FormatMP4},
		{"mp3 with id3", []byte("ID3\x04\x00"), FormatMP3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"riff but not wave", []byte("RIFF\x24\x00\x00\x00AVI LIST"), ""},
		{"unknown", []byte("hello world"), ""},
		{"too short", []byte{0xFF}, ""},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SniffContainer(tt.raw))
		})
	}
}

func TestNormalizeContainerHint(t *testing.T) {
	tests := map[string]string{
		"":                         "",
		"wav":                      "wav",
		".M4A":                     "m4a",
		"voice-memo.MP3":           "mp3",
		"/tmp/recordings/call.ogg": "ogg",
		"audio/mpeg":               "mp3",
		"audio/x-m4a":              "m4a",
		"audio/webm;codecs=opus":   "webm",
		"application/octet-stream": "",
		"  mpga  ":                 "mpga",
	}
	for hint, want := range tests {
		assert.Equal(t, want, NormalizeContainerHint(hint), "hint %q", hint)
	}
}

func TestFormatFromProbeName(t *testing.T) {
	assert.Equal(t, "mp3", formatFromProbeName("mp3"))
	assert.Equal(t, "m4a", formatFromProbeName("mov,mp4,m4a,3gp,3g2,mj2"))
	assert.Equal(t, "webm", formatFromProbeName("matroska,webm"))
	assert.Equal(t, "wav", formatFromProbeName("wav"))
	assert.Equal(t, "aiff", formatFromProbeName("aiff"))
}

func TestParseProbeOutput(t *testing.T) {
	output := `{
		"streams": [
			{"codec_type": "video", "codec_name": "h264"},
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2}
		],
		"format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "45.120000", "size": "734003"}
	}`

	desc, err := parseProbeOutput([]byte(output))
	require.NoError(t, err)
	assert.InDelta(t, 45.12, desc.DurationSeconds, 1e-9)
	assert.Equal(t, 44100, desc.SampleRateHz)
	assert.Equal(t, 2, desc.Channels)
	assert.Equal(t, "m4a", desc.ContainerFormat)
	assert.Equal(t, int64(734003), desc.SizeBytes)

	_, err = parseProbeOutput([]byte(`{"streams": [{"codec_type": "video"}], "format": {}}`))
	assert.Error(t, err)

	_, err = parseProbeOutput([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseMeanVolume(t *testing.T) {
	stderr := `[Parsed_volumedetect_0 @ 0x7f] n_samples: 1984500
[Parsed_volumedetect_0 @ 0x7f] mean_volume: -34.7 dB
[Parsed_volumedetect_0 @ 0x7f] max_volume: -12.0 dB`

	v, err := parseMeanVolume([]byte(stderr))
	require.NoError(t, err)
	assert.InDelta(t, -34.7, v, 1e-9)

	v, err = parseMeanVolume([]byte("mean_volume: -inf dB"))
	require.NoError(t, err)
	assert.Equal(t, SilenceFloorDbfs, v)

	v, err = parseMeanVolume([]byte("mean_volume: 0.0 dB"))
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = parseMeanVolume([]byte("no volume here"))
	assert.Error(t, err)
}

func TestFFProbe_Probe(t *testing.T) {
	root := t.TempDir()
	var commands []string
	run := func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		commands = append(commands, name)
		input := args[len(args)-1]
		if name == "ffmpeg" {
			input = args[3]
		}
		if _, err := os.Stat(input); err != nil {
			return nil, nil, fmt.Errorf("input missing: %w", err)
		}
		switch name {
		case "ffprobe":
			return []byte(`{"streams":[{"codec_type":"audio","sample_rate":"48000","channels":1}],"format":{"format_name":"ogg","duration":"12.5","size":"2048"}}`), nil, nil
		default:
			return nil, []byte("mean_volume: -41.2 dB"), nil
		}
	}

	desc, err := NewFFProbe(root, run).Probe(context.Background(), []byte("OggS payload"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ffprobe", "ffmpeg"}, commands)
	assert.InDelta(t, 12.5, desc.DurationSeconds, 1e-9)
	assert.Equal(t, 48000, desc.SampleRateHz)
	assert.InDelta(t, -41.2, desc.LoudnessDbfs, 1e-9)
	assert.Equal(t, int64(len("OggS payload")), desc.SizeBytes)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch files are removed after probing")
}

func TestFFProbe_WithBinaries(t *testing.T) {
	var commands []string
	run := func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		commands = append(commands, name)
		if name == "/opt/ffmpeg/bin/ffprobe" {
			return []byte(`{"streams":[{"codec_type":"audio","sample_rate":"16000","channels":1}],"format":{"format_name":"mp3","duration":"3"}}`), nil, nil
		}
		return nil, []byte("mean_volume: -20.0 dB"), nil
	}

	_, err := NewFFProbe(t.TempDir(), run).WithBinaries("/opt/ffmpeg/bin/ffprobe", "").Probe(context.Background(), []byte("ID3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/ffmpeg/bin/ffprobe", "ffmpeg"}, commands)
}

func TestWorkspace(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)

	path, err := ws.WriteFile("input.wav", []byte("abc"))
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, ws.Path("input.wav"), path)

	data, err := ws.ReadFile("input.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)

	_, err = ws.ReadFile("missing.wav")
	assert.Error(t, err)

	require.NoError(t, ws.Release())
	assert.True(t, ws.Released())
	assert.NoDirExists(t, ws.Dir())
	require.NoError(t, ws.Release(), "release is idempotent")
}
