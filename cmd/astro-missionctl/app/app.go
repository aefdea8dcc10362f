// Package app implements the astro-missionctl command tree, a thin HTTP
// client for the sequencer's REST API.
package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/astrolink-io/astrolink/internal/sequencer/core"
	"github.com/astrolink-io/astrolink/internal/sequencer/core/model"
)

const defaultServer = "http://localhost:8080"

type clientConfig struct {
	server  string
	timeout time.Duration
}

func NewRootCommand() *cobra.Command {
	cfg := &clientConfig{}

	root := &cobra.Command{
		Use:           "astro-missionctl",
		Short:         "Control and inspect Astrolink missions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.server, "server", defaultServer, "Base URL of the sequencer HTTP API.")
	root.PersistentFlags().DurationVar(&cfg.timeout, "timeout", 10*time.Second, "HTTP request timeout.")

	root.AddCommand(
		newSubmitCommand(cfg),
		newListCommand(cfg),
		newStatusCommand(cfg),
		newAbortCommand(cfg),
	)
	return root
}

func newSubmitCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "submit <plan.json>",
		Short: "Submit a mission plan document ('-' reads from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readPlan(args[0])
			if err != nil {
				return err
			}

			resp, body, err := cfg.do(http.MethodPost, "/api/v1/missions", doc)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusAccepted {
				return apiError(resp, body)
			}

			var rec model.MissionRecord
			if err := json.Unmarshal(body, &rec); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mission %s accepted (%d steps)\n", rec.MissionID, rec.TotalSteps)
			return nil
		},
	}
}

func newListCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active missions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, body, err := cfg.do(http.MethodGet, "/api/v1/missions", nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return apiError(resp, body)
			}

			var payload struct {
				Missions []model.MissionRecord `json:"missions"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			if len(payload.Missions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No active missions.")
				return nil
			}

			table := uitable.New()
			table.AddRow("MISSION ID", "STATUS", "STEP", "UPDATED", "DETAIL")
			for _, m := range payload.Missions {
				table.AddRow(m.MissionID, string(m.Status),
					fmt.Sprintf("%d/%d", m.CurrentStep+1, m.TotalSteps),
					m.LastUpdatedAt.Format(time.RFC3339), m.Detail)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newStatusCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status <mission-id>",
		Short: "Show one mission's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, body, err := cfg.do(http.MethodGet, "/api/v1/missions/"+args[0], nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return apiError(resp, body)
			}

			var rec model.MissionRecord
			if err := json.Unmarshal(body, &rec); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}

			table := uitable.New()
			table.AddRow("Mission ID:", rec.MissionID)
			table.AddRow("Status:", string(rec.Status))
			table.AddRow("Step:", fmt.Sprintf("%d/%d", rec.CurrentStep+1, rec.TotalSteps))
			table.AddRow("Detail:", rec.Detail)
			if rec.TerminalError != "" {
				table.AddRow("Error:", string(rec.TerminalError))
			}
			table.AddRow("Created:", rec.CreatedAt.Format(time.RFC3339))
			table.AddRow("Updated:", rec.LastUpdatedAt.Format(time.RFC3339))
			if !rec.FinishedAt.IsZero() {
				table.AddRow("Finished:", rec.FinishedAt.Format(time.RFC3339))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newAbortCommand(cfg *clientConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "abort <mission-id>",
		Short: "Cancel a queued or running mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, body, err := cfg.do(http.MethodDelete, "/api/v1/missions/"+args[0], nil)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusNoContent {
				return apiError(resp, body)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mission %s abort requested\n", args[0])
			return nil
		},
	}
}

func readPlan(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func (c *clientConfig) do(method, path string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.server+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: c.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

// apiError turns a non-success response into a readable error, listing
// field violations when the server reports them.
func apiError(resp *http.Response, body []byte) error {
	var payload struct {
		Error      string                `json:"error"`
		Violations []core.FieldViolation `json:"violations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if len(payload.Violations) == 0 {
		return fmt.Errorf("%s", payload.Error)
	}
	msg := payload.Error
	for _, v := range payload.Violations {
		msg += fmt.Sprintf("\n  %s: %s", v.Field, v.Reason)
	}
	return fmt.Errorf("%s", msg)
}
