package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/uus/internal/services"
	"github.com/desertthunder/uus/internal/shared"
	"github.com/urfave/cli/v3"
)

// restClient returns the Supabase client for raw calls; the other backends have no REST surface.
func (r *Runner) restClient() (*services.SupabaseService, error) {
	if svc, ok := r.backend.(*services.SupabaseService); ok {
		return svc, nil
	}
	if r.config.Backend.Driver != shared.BackendSupabase {
		return nil, fmt.Errorf("%w: api commands need backend.driver = %q", shared.ErrInvalidConfig, shared.BackendSupabase)
	}
	return r.supabase()
}

// APIGet makes a direct GET request to the REST endpoint
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	svc, err := r.restClient()
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := svc.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the REST endpoint
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	svc, err := r.restClient()
	if err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := svc.Raw(ctx, http.MethodPost, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}
