package audio

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Container formats known to the analyzer.
const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatMP4  = "mp4"
	FormatM4A  = "m4a"
	FormatWEBM = "webm"
	FormatMPEG = "mpeg"
	FormatMPGA = "mpga"
	FormatFLAC = "flac"
	FormatOGG  = "ogg"
	FormatAMR  = "amr"
)

var mimeFormats = map[string]string{
	"audio/wav":    FormatWAV,
	"audio/wave":   FormatWAV,
	"audio/x-wav":  FormatWAV,
	"audio/mpeg":   FormatMP3,
	"audio/mp3":    FormatMP3,
	"audio/mp4":    FormatM4A,
	"audio/x-m4a":  FormatM4A,
	"audio/m4a":    FormatM4A,
	"video/mp4":    FormatMP4,
	"audio/webm":   FormatWEBM,
	"video/webm":   FormatWEBM,
	"audio/ogg":    FormatOGG,
	"audio/flac":   FormatFLAC,
	"audio/x-flac": FormatFLAC,
	"audio/amr":    FormatAMR,
}

// SniffContainer identifies the container from its magic bytes. It returns ""
// when the payload matches no known signature.
func SniffContainer(raw []byte) string {
	switch {
	case len(raw) >= 12 && bytes.Equal(raw[0:4], []byte("RIFF")) && bytes.Equal(raw[8:12], []byte("WAVE")):
		return FormatWAV
	case len(raw) >= 4 && bytes.Equal(raw[0:4], []byte("fLaC")):
		return FormatFLAC
	case len(raw) >= 4 && bytes.Equal(raw[0:4], []byte("OggS")):
		return FormatOGG
	case len(raw) >= 4 && bytes.Equal(raw[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return FormatWEBM
	case len(raw) >= 5 && bytes.Equal(raw[0:5], []byte("#!AMR")):
		return FormatAMR
	case len(raw) >= 12 && bytes.Equal(raw[4:8], []byte("ftyp")):
		brand := string(raw[8:12])
		if brand == "M4A " || brand == "M4B " {
			return FormatM4A
		}
		return FormatMP4
	case len(raw) >= 3 && bytes.Equal(raw[0:3], []byte("ID3")):
		return FormatMP3
	case len(raw) >= 2 && raw[0] == 0xFF && raw[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return ""
}

// NormalizeContainerHint turns a caller-supplied hint (extension, file name or
// MIME type) into a lowercase format name such as "m4a".
func NormalizeContainerHint(hint string) string {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" {
		return ""
	}
	if i := strings.Index(h, ";"); i >= 0 {
		h = strings.TrimSpace(h[:i])
	}
	if f, ok := mimeFormats[h]; ok {
		return f
	}
	if strings.Contains(h, "/") && !strings.Contains(h, ".") {
		return ""
	}
	if ext := filepath.Ext(h); ext != "" {
		h = ext
	}
	return strings.TrimPrefix(h, ".")
}

// formatFromProbeName maps ffprobe's comma separated format_name to one name.
func formatFromProbeName(name string) string {
	parts := strings.Split(strings.ToLower(name), ",")
	for _, p := range parts {
		switch p {
		case "wav", "mp3", "flac", "ogg", "amr", "webm":
			return p
		case "m4a":
			return FormatM4A
		case "matroska":
			return FormatWEBM
		}
	}
	if len(parts) > 0 && parts[0] == "mov" {
		return FormatMP4
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return ""
}
