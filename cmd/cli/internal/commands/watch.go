package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

// WatchCmd follows the live status feed, reprinting the page whenever the
// server pushes a new snapshot.
type WatchCmd struct {
	OrgID string `arg:"" help:"organization id"`

	Endpoint string `help:"status page API endpoint" default:"http://localhost:8080" env:"STATUSDECK_ENDPOINT"`
}

func (c *WatchCmd) Run(globals *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/status/%s/stream", c.Endpoint, c.OrgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to open status stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status stream request failed: %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var event string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")

		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")

			if event == "error" {
				return fmt.Errorf("stream ended: %s", data)
			}

			var page statusPage
			if err := json.Unmarshal([]byte(data), &page); err != nil {
				return fmt.Errorf("failed to decode status payload: %w", err)
			}

			fmt.Println(strings.Repeat("-", 40))
			printStatusPage(os.Stdout, &page)
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream read failed: %w", err)
	}

	return nil
}
