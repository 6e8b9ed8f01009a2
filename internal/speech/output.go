package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// CommandOutput pipes audio into an external player such as "aplay -q -".
type CommandOutput struct {
	name string
	args []string
}

// NewCommandOutput parses a whitespace-separated command line.
func NewCommandOutput(command string) (*CommandOutput, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty player command")
	}
	return &CommandOutput{name: fields[0], args: fields[1:]}, nil
}

// Play runs the player with audio on stdin; cancelling ctx kills it.
func (c *CommandOutput) Play(ctx context.Context, audio []byte, _ string) error {
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdin = bytes.NewReader(audio)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w: %s", c.name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// FileOutput writes each utterance to a WAV file, for hosts without audio.
type FileOutput struct {
	dir string
}

// NewFileOutput writes utterances into dir.
func NewFileOutput(dir string) *FileOutput {
	return &FileOutput{dir: dir}
}

// Play writes audio to a new file in the output directory.
func (f *FileOutput) Play(ctx context.Context, audio []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.CreateTemp(f.dir, "qrforge-preview-*.wav")
	if err != nil {
		return fmt.Errorf("creating preview file: %w", err)
	}
	if err := writeAndClose(file, audio); err != nil {
		return err
	}
	slog.Info("audio preview written", "path", file.Name(), "bytes", len(audio))
	return nil
}

// writeAndClose writes data to w and closes it, reporting either failure.
func writeAndClose(w io.WriteCloser, data []byte) error {
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing preview file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing preview file: %w", err)
	}
	return nil
}
