package entrypoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	slogcontext "github.com/veqryn/slog-context"
)

// ExecPlugin is a plugin implemented by an executable.
//
// Invoke runs the executable with the options encoded as a JSON object on stdin and
// decodes stdout as JSON. Output that is not valid JSON is returned as a trimmed string.
type ExecPlugin struct {
	Name string
	Path string
	Args []string
	// Dir is the working directory of the process.
	Dir string
	// Stderr receives the stderr of the process. Defaults to os.Stderr.
	Stderr io.Writer
}

// Invoke runs the plugin once with opts.
func (p *ExecPlugin) Invoke(ctx context.Context, opts map[string]any) (any, error) {
	if opts == nil {
		opts = map[string]any{}
	}
	input, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options for plugin %s: %w", p.Name, err)
	}

	output := bytes.NewBuffer(nil)
	cmd := exec.CommandContext(ctx, cleanPath(p.Path), p.Args...) //nolint:gosec // G204 does not apply
	cmd.Dir = p.Dir
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = output
	cmd.Stderr = p.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	slogcontext.FromCtx(ctx).DebugContext(ctx, "running plugin", "name", p.Name, "path", p.Path)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to run plugin %s: %w", p.Name, err)
	}

	trimmed := bytes.TrimSpace(output.Bytes())
	if len(trimmed) == 0 {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(trimmed, &result); err != nil {
		slogcontext.FromCtx(ctx).Log(ctx, slog.LevelDebug, "plugin output is not json, returning it as text", "name", p.Name)
		return string(trimmed), nil
	}
	return result, nil
}

func (p *ExecPlugin) String() string {
	return strings.Join(append([]string{p.Path}, p.Args...), " ")
}

func cleanPath(path string) string {
	return strings.Trim(path, `,;:'"|&*!@#$`)
}
