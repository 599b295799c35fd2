package audio

import (
	"context"
	"strconv"
)

// TranscodeJob describes the output of one transcoding pass.
type TranscodeJob struct {
	OutputFormat string
	BitrateKbps  int
	Channels     int
	Normalize    bool
}

// Transcoder converts inPath into outPath according to job.
type Transcoder interface {
	Transcode(ctx context.Context, inPath, outPath string, job TranscodeJob) error
}

// FFmpegTranscoder shells out to ffmpeg.
type FFmpegTranscoder struct {
	binary string
	run    CommandRunner
}

func NewFFmpegTranscoder(binary string, run CommandRunner) *FFmpegTranscoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if run == nil {
		run = ExecRunner
	}
	return &FFmpegTranscoder{binary: binary, run: run}
}

func (t *FFmpegTranscoder) Transcode(ctx context.Context, inPath, outPath string, job TranscodeJob) error {
	_, _, err := t.run(ctx, t.binary, ffmpegArgs(inPath, outPath, job)...)
	return err
}

func ffmpegArgs(inPath, outPath string, job TranscodeJob) []string {
	args := []string{"-hide_banner", "-nostats", "-y", "-i", inPath, "-vn"}
	if job.Normalize {
		args = append(args, "-af", "loudnorm=I=-16:TP=-1.5:LRA=11")
	}
	if job.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(job.Channels))
	}
	switch job.OutputFormat {
	case FormatMP3:
		args = append(args, "-acodec", "libmp3lame")
	case FormatMPEG, FormatMPGA:
		args = append(args, "-f", "mp3", "-acodec", "libmp3lame")
	case FormatWAV:
		args = append(args, "-acodec", "pcm_s16le")
	}
	if job.BitrateKbps > 0 {
		args = append(args, "-b:a", strconv.Itoa(job.BitrateKbps)+"k")
	}
	return append(args, outPath)
}
