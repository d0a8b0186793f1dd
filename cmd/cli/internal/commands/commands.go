package commands

import (
	"fmt"
	"io"

	"github.com/statusdeck/statusdeck/internal/models"
)

type Globals struct {
	Debug   bool
	Version string
}

// statusPage mirrors the public status payload served by the API.
type statusPage struct {
	Organization struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"organization"`
	OverallStatus     string             `json:"overall_status"`
	Services          []*models.Service  `json:"services"`
	ActiveIncidents   []*models.Incident `json:"active_incidents"`
	ResolvedIncidents []*models.Incident `json:"resolved_incidents"`
}

func printStatusPage(w io.Writer, page *statusPage) {
	fmt.Fprintf(w, "%s: %s\n", page.Organization.Name, page.OverallStatus)

	if len(page.Services) > 0 {
		fmt.Fprintln(w, "\nServices:")
		for _, svc := range page.Services {
			fmt.Fprintf(w, "  %-30s %s\n", svc.Name, svc.Status)
		}
	}

	if len(page.ActiveIncidents) > 0 {
		fmt.Fprintln(w, "\nActive incidents:")
		for _, incident := range page.ActiveIncidents {
			fmt.Fprintf(w, "  [%s] %s (%s)\n", incident.Impact, incident.Title, incident.Status)
			if len(incident.Updates) > 0 {
				latest := incident.Updates[len(incident.Updates)-1]
				fmt.Fprintf(w, "    %s %s\n", latest.CreatedAt.Local().Format("2006-01-02 15:04"), latest.Message)
			}
		}
	}

	if len(page.ResolvedIncidents) > 0 {
		fmt.Fprintf(w, "\n%d resolved incident(s)\n", len(page.ResolvedIncidents))
	}
}
