package wav

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CheckFFmpegAvailable reports whether the ffmpeg binary can be found on PATH.
// The conversion path cannot work without it; callers should surface the error
// as a startup warning.
func CheckFFmpegAvailable() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %v", err)
	}
	return nil
}

// ConvertToWAV converts the audio file at inputPath into a PCM16 WAV with the
// given channel count. sampleRate > 0 resamples to that rate; 0 keeps the
// source rate. Returns the path of the converted file.
func ConvertToWAV(inputPath string, channels, sampleRate int) (string, error) {
	if channels < 1 || channels > 2 {
		return "", fmt.Errorf("invalid channel count: %d", channels)
	}

	ext := filepath.Ext(inputPath)
	outputPath := strings.TrimSuffix(inputPath, ext) + "_conv.wav"

	args := []string{"-y", "-i", inputPath, "-c:a", "pcm_s16le", "-ac", strconv.Itoa(channels)}
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	args = append(args, outputPath)

	cmd := exec.Command("ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to convert audio to wav: %v, ffmpeg output: %s", err, output)
	}

	return outputPath, nil
}
