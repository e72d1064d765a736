package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Audio probing and splitting, shelling out to ffprobe/ffmpeg. Chunks
// are contiguous stream copies so no re-encode cost is paid.

// AudioSplitter probes downloaded media and cuts it into chunks. The
// default shells out to ffprobe/ffmpeg; tests substitute an in-process
// implementation.
type AudioSplitter interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
	Split(ctx context.Context, path string, plan AudioChunkPlan, dir string) ([]string, error)
}

type ffmpegSplitter struct{}

func (ffmpegSplitter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	return probeDuration(ctx, path)
}

func (ffmpegSplitter) Split(ctx context.Context, path string, plan AudioChunkPlan, dir string) ([]string, error) {
	return splitAudio(ctx, path, plan, dir)
}

// probeDuration returns the audio duration in seconds. ffprobe is
// preferred; ffmpeg's stderr banner is the fallback.
func probeDuration(ctx context.Context, path string) (float64, error) {
	if ffprobe, err := exec.LookPath("ffprobe"); err == nil {
		cmd := exec.CommandContext(ctx, ffprobe,
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path)
		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		if err := cmd.Run(); err == nil {
			raw := strings.TrimSpace(stdout.String())
			if dur, err := strconv.ParseFloat(raw, 64); err == nil && dur > 0 {
				return dur, nil
			}
		}
	}

	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return 0, fmt.Errorf("neither ffprobe nor ffmpeg found in PATH: %w", err)
	}
	cmd := exec.CommandContext(ctx, ffmpeg, "-i", path, "-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run() // exits non-zero without an output file; the banner still prints

	return parseFFmpegDuration(stderr.String())
}

// parseFFmpegDuration extracts "Duration: HH:MM:SS.ss" from ffmpeg output.
func parseFFmpegDuration(output string) (float64, error) {
	const prefix = "Duration: "
	start := strings.Index(output, prefix)
	if start == -1 {
		return 0, fmt.Errorf("duration not found in ffmpeg output")
	}
	start += len(prefix)
	end := strings.Index(output[start:], ",")
	if end == -1 {
		return 0, fmt.Errorf("invalid duration format")
	}

	parts := strings.Split(output[start:start+end], ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration format: %s", output[start:start+end])
	}
	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, err
	}
	return hours*3600 + minutes*60 + seconds, nil
}

// splitAudio cuts the file into plan.ChunkCount contiguous segments in
// dir, returning their paths in chunk order. The final chunk simply runs
// to end of stream.
func splitAudio(ctx context.Context, path string, plan AudioChunkPlan, dir string) ([]string, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".mp3"
	}

	paths := make([]string, 0, plan.ChunkCount)
	for i := 0; i < plan.ChunkCount; i++ {
		out := filepath.Join(dir, fmt.Sprintf("chunk_%03d%s", i, ext))
		args := []string{
			"-v", "error",
			"-ss", fmt.Sprintf("%.3f", float64(i)*plan.ChunkDuration),
			"-t", fmt.Sprintf("%.3f", plan.ChunkDuration),
			"-i", path,
			"-c", "copy",
			"-y",
			out,
		}
		cmd := exec.CommandContext(ctx, ffmpeg, args...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("split chunk %d: %w: %s", i, err, strings.TrimSpace(stderr.String()))
		}
		paths = append(paths, out)
	}
	return paths, nil
}
