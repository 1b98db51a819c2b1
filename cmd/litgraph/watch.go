package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/idgen"
	"github.com/alfredjeanlab/litgraph/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:               "watch",
	Short:             "Stream catalogue and explorer events from NATS",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: skipClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			return fmt.Errorf("no NATS URL: set --nats, LITGRAPH_NATS_URL or a remote with --nats")
		}
		topic, _ := cmd.Flags().GetString("topic")
		session, _ := cmd.Flags().GetString("session")
		if session != "" {
			if !idgen.IsSessionID(session) {
				return fmt.Errorf("invalid session ID %q (want %sxxxxxxxx)", session, idgen.SessionPrefix)
			}
			if !cmd.Flags().Changed("topic") {
				topic = events.ExplorerPrefix + ">"
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return watchNATS(ctx, natsURL, topic, session, cmd.OutOrStdout())
	},
}

// watchNATS prints every event on topic until ctx is done. A non-empty
// session keeps only that explorer session's events.
func watchNATS(ctx context.Context, natsURL, topic, session string, w io.Writer) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if session != "" && !fromSession(msg, session) {
				continue
			}
			if jsonOutput {
				fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", msg.Topic, bytes.TrimSpace(msg.Data))
				continue
			}
			fmt.Fprintln(w, formatEvent(msg, time.Now()))
		}
	}
}

// formatEvent renders one event as "15:04:05 topic key=value ...". Payloads
// that are not JSON objects are printed verbatim.
func formatEvent(msg events.Message, at time.Time) string {
	topic := strings.TrimPrefix(msg.Topic, events.Prefix)
	line := ui.RenderMuted(at.Format("15:04:05")) + " " + ui.RenderAccent(topic)

	var fields map[string]any
	if err := json.Unmarshal(msg.Data, &fields); err != nil {
		return line + " " + strings.TrimSpace(string(msg.Data))
	}
	for _, k := range sortedKeys(fields) {
		v := fields[k]
		if v == nil || v == "" {
			continue
		}
		switch v := v.(type) {
		case string:
			line += fmt.Sprintf(" %s=%q", k, v)
		default:
			data, _ := json.Marshal(v)
			line += fmt.Sprintf(" %s=%s", k, data)
		}
	}
	return line
}

// fromSession reports whether msg carries the given explorer session ID.
func fromSession(msg events.Message, session string) bool {
	var probe struct {
		SessionID string `json:"session_id"`
	}
	return json.Unmarshal(msg.Data, &probe) == nil && probe.SessionID == session
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	watchCmd.Flags().String("nats", defaultNATSURL(), "NATS URL")
	watchCmd.Flags().String("topic", events.Prefix+">", "subject to subscribe to")
	watchCmd.Flags().String("session", "", "only show events from this explorer session (implies explorer topics)")
}
