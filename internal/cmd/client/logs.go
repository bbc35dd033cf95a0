package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/logwell/logwell/internal/model"
	"github.com/logwell/logwell/pkg/streamclient"
)

// NewLogsCommand constructs the `logs` command group and subcommands.
func NewLogsCommand(baseURL BaseURLFunc) *cobra.Command {
	logsCmd := &cobra.Command{Use: "logs", Short: "Log operations"}

	logsCmd.AddCommand(
		newLogsSendCommand(baseURL),
		newLogsListCommand(baseURL),
		newLogsTailCommand(baseURL),
	)

	return logsCmd
}

// newLogsTailCommand constructs the `logs tail` subcommand. It follows a
// project's live stream and prints records as batches arrive, reconnecting
// with backoff when the connection drops.
func newLogsTailCommand(baseURL BaseURLFunc) *cobra.Command {
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow a project's live log stream",
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			filter, _ := cmd.Flags().GetString("filter")
			format, _ := cmd.Flags().GetString("format")
			if project == "" {
				return fmt.Errorf("--project is required")
			}
			if format != "text" && format != "json" {
				return fmt.Errorf("invalid --format; use text|json")
			}

			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			done := make(chan struct{})
			c, err := streamclient.New(streamclient.Options{
				BaseURL:   baseURL(),
				ProjectID: project,
				APIKey:    apiKeyFromEnv(),
				Filter:    filter,
				OnBatch: func(recs []model.LogRecord) {
					for _, rec := range recs {
						if format == "json" {
							_ = enc.Encode(rec)
						} else {
							writeRecordText(out, rec)
						}
					}
				},
				OnState: func(s streamclient.State) {
					switch s {
					case streamclient.StateReconnecting:
						fmt.Fprintln(cmd.ErrOrStderr(), "connection lost, reconnecting...")
					case streamclient.StateDisconnected:
						close(done)
					}
				},
			})
			if err != nil {
				return err
			}
			c.Connect()

			select {
			case <-cmd.Context().Done():
				c.Disconnect()
				return nil
			case <-done:
				return c.LastError()
			}
		},
	}
	tailCmd.Flags().StringP("project", "p", "", "Project ID")
	tailCmd.Flags().String("filter", "", "CEL filter (server-side)")
	tailCmd.Flags().String("format", "text", "Output format: text|json")
	return tailCmd
}

// newLogsListCommand constructs the `logs list` subcommand.
func newLogsListCommand(baseURL BaseURLFunc) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Query stored logs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			limit, _ := cmd.Flags().GetInt("limit")
			cursor, _ := cmd.Flags().GetString("cursor")
			format, _ := cmd.Flags().GetString("format")
			if project == "" {
				return fmt.Errorf("--project is required")
			}

			q := url.Values{}
			q.Set("project", project)
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if cursor != "" {
				q.Set("cursor", cursor)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL()+"/v1/logs?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			authorize(req)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(body))
			}

			var page struct {
				Logs       []model.LogRecord `json:"logs"`
				NextCursor string            `json:"nextCursor"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			for _, rec := range page.Logs {
				if format == "json" {
					_ = enc.Encode(rec)
				} else {
					writeRecordText(out, rec)
				}
			}
			if page.NextCursor != "" {
				fmt.Fprintln(out, "next cursor:", page.NextCursor)
			}
			return nil
		},
	}
	listCmd.Flags().StringP("project", "p", "", "Project ID")
	listCmd.Flags().Int("limit", 0, "Max records per page (server default 100)")
	listCmd.Flags().String("cursor", "", "Pagination cursor from a previous page")
	listCmd.Flags().String("format", "text", "Output format: text|json")
	return listCmd
}

// newLogsSendCommand constructs the `logs send` subcommand.
func newLogsSendCommand(baseURL BaseURLFunc) *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send a log record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _ := cmd.Flags().GetString("project")
			message, _ := cmd.Flags().GetString("message")
			level, _ := cmd.Flags().GetString("level")
			service, _ := cmd.Flags().GetString("service")
			metadata, _ := cmd.Flags().GetString("metadata")
			if project == "" {
				return fmt.Errorf("--project is required")
			}
			if message == "" {
				return fmt.Errorf("--message is required")
			}

			entry := map[string]any{"message": message, "level": level}
			if service != "" {
				entry["service"] = service
			}
			if metadata != "" {
				if !json.Valid([]byte(metadata)) {
					return fmt.Errorf("--metadata must be a JSON value")
				}
				entry["metadata"] = json.RawMessage(metadata)
			}
			body, _ := json.Marshal(map[string]any{"logs": []any{entry}})

			u := baseURL() + "/v1/logs/ingest?project=" + url.QueryEscape(project)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, u, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			authorize(req)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusAccepted {
				b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
				return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(b))
			}
			var ack struct {
				Accepted int `json:"accepted"`
				Rejected int `json:"rejected"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accepted: %d rejected: %d\n", ack.Accepted, ack.Rejected)
			return nil
		},
	}
	sendCmd.Flags().StringP("project", "p", "", "Project ID")
	sendCmd.Flags().StringP("message", "m", "", "Log message")
	sendCmd.Flags().String("level", "info", "Level: debug|info|warn|error|fatal")
	sendCmd.Flags().String("service", "", "Originating service name")
	sendCmd.Flags().String("metadata", "", "Metadata as a JSON value")
	return sendCmd
}
