package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"

	"take-my-dictation/internal/app/model"
)

// CommandRunner executes an external binary and returns its stdout and stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%s error: %v, stderr: %s", name, err, lastLines(stderr.String(), 5))
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// FFProbe measures non-WAV containers with the ffprobe and ffmpeg binaries.
type FFProbe struct {
	tempRoot string
	run      CommandRunner
	ffprobe  string
	ffmpeg   string
}

// NewFFProbe creates an ffprobe-backed prober. Payloads are spilled to a
// scratch directory under tempRoot because some containers (m4a with a
// trailing moov atom) cannot be probed from a pipe.
func NewFFProbe(tempRoot string, run CommandRunner) *FFProbe {
	if run == nil {
		run = ExecRunner
	}
	return &FFProbe{tempRoot: tempRoot, run: run, ffprobe: "ffprobe", ffmpeg: "ffmpeg"}
}

// WithBinaries overrides the ffprobe and ffmpeg executables. Empty values
// keep the PATH lookup.
func (p *FFProbe) WithBinaries(ffprobe, ffmpeg string) *FFProbe {
	if ffprobe != "" {
		p.ffprobe = ffprobe
	}
	if ffmpeg != "" {
		p.ffmpeg = ffmpeg
	}
	return p
}

func (p *FFProbe) Probe(ctx context.Context, raw []byte) (model.AudioDescriptor, error) {
	ws, err := NewWorkspace(p.tempRoot)
	if err != nil {
		return model.AudioDescriptor{}, err
	}
	defer ws.Release()

	path, err := ws.WriteFile("probe-input", raw)
	if err != nil {
		return model.AudioDescriptor{}, err
	}

	out, _, err := p.run(ctx, p.ffprobe, "-v", "error", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return model.AudioDescriptor{}, err
	}
	desc, err := parseProbeOutput(out)
	if err != nil {
		return model.AudioDescriptor{}, err
	}

	_, stderr, err := p.run(ctx, p.ffmpeg, "-hide_banner", "-nostats", "-i", path, "-vn", "-af", "volumedetect", "-f", "null", "-")
	if err != nil {
		return model.AudioDescriptor{}, err
	}
	loudness, err := parseMeanVolume(stderr)
	if err != nil {
		return model.AudioDescriptor{}, err
	}
	desc.LoudnessDbfs = loudness
	desc.SizeBytes = int64(len(raw))
	return desc, nil
}

func parseProbeOutput(output []byte) (model.AudioDescriptor, error) {
	var probeOutput model.FFProbeOutput
	if err := json.Unmarshal(output, &probeOutput); err != nil {
		return model.AudioDescriptor{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	for _, stream := range probeOutput.Streams {
		if stream.CodecType != "audio" {
			continue
		}
		return model.AudioDescriptor{
			DurationSeconds: probeOutput.Format.Duration,
			SampleRateHz:    stream.SampleRate,
			Channels:        stream.Channels,
			ContainerFormat: formatFromProbeName(probeOutput.Format.FormatName),
			SizeBytes:       probeOutput.Format.Size,
		}, nil
	}
	return model.AudioDescriptor{}, fmt.Errorf("no audio stream found")
}

var meanVolumePattern = regexp.MustCompile(`mean_volume:\s*(-?(?:inf|[0-9.]+))\s*dB`)

// parseMeanVolume extracts the volumedetect mean level from ffmpeg's stderr.
func parseMeanVolume(stderr []byte) (float64, error) {
	m := meanVolumePattern.FindSubmatch(stderr)
	if m == nil {
		return 0, fmt.Errorf("volumedetect output not found")
	}
	if bytes.HasSuffix(m[1], []byte("inf")) {
		return SilenceFloorDbfs, nil
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid mean_volume %q: %w", m[1], err)
	}
	if v < SilenceFloorDbfs {
		v = SilenceFloorDbfs
	}
	return v, nil
}

func lastLines(s string, n int) string {
	lines := bytes.Split(bytes.TrimSpace([]byte(s)), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte("\n")))
}
