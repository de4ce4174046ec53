package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/uus/internal/shared"
	"github.com/urfave/cli/v3"
)

// maxStdinBytes bounds how much of a pasted snippet is read from standard input.
const maxStdinBytes = 1 << 20

// VideoNormalize prints the canonical player URL for a reference, or fails with
// [shared.ErrUnrecognizedVideo].
func (r *Runner) VideoNormalize(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("reference")
	if cmd.Bool("stdin") {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinBytes))
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		raw = string(data)
	}

	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: reference (or --stdin)", shared.ErrMissingArgument)
	}

	ref := r.videos.Resolve(raw)

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"ok": ref.OK, "embed_url": ref.EmbedURL}, false)
	}

	if !ref.OK {
		return fmt.Errorf("%w: %q is not a %s link", shared.ErrUnrecognizedVideo, ref.Preview(60), r.videos.Provider().Name)
	}

	return r.writePlain("%s\n", ref.EmbedURL)
}
