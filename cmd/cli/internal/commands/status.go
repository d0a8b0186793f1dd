package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// StatusCmd fetches a one-shot public status snapshot.
type StatusCmd struct {
	OrgID string `arg:"" help:"organization id"`

	Endpoint string `help:"status page API endpoint" default:"http://localhost:8080" env:"STATUSDECK_ENDPOINT"`
	JSON     bool   `help:"print the raw JSON payload"`
}

func (c *StatusCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/v1/status/%s", c.Endpoint, c.OrgID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status request failed: %s: %s", resp.Status, body)
	}

	if c.JSON {
		_, err := io.Copy(os.Stdout, resp.Body)
		return err
	}

	var page statusPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("failed to decode status payload: %w", err)
	}

	printStatusPage(os.Stdout, &page)
	return nil
}
