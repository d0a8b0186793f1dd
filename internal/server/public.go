package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/projection"
	"github.com/statusdeck/statusdeck/internal/status"
	"github.com/statusdeck/statusdeck/internal/telemetry"
)

// statusPayload is the public snapshot of an organization's status page.
// Only the organization's name crosses the anonymous boundary; members and
// owner stay private.
type statusPayload struct {
	Organization      orgSummary         `json:"organization"`
	OverallStatus     string             `json:"overall_status"`
	Services          []*models.Service  `json:"services"`
	ActiveIncidents   []*models.Incident `json:"active_incidents"`
	ResolvedIncidents []*models.Incident `json:"resolved_incidents"`
}

type orgSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// getStatus returns a one-shot public status snapshot.
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	orgID := r.PathValue("orgID")

	org, err := s.dir.Organizations.Get(ctx, orgID)
	if err != nil {
		sendStoreError(w, log, err)
		return
	}

	services, err := s.dir.Services.List(ctx, orgID)
	if err != nil {
		sendStoreError(w, log, err)
		return
	}
	status.SortServices(services)

	incidents, err := s.dir.Incidents.List(ctx, orgID)
	if err != nil {
		sendStoreError(w, log, err)
		return
	}
	active, resolved := status.Partition(incidents)

	telemetry.GetMetrics().StatusRequestsTotal.Add(ctx, 1)

	sendJSON(w, http.StatusOK, statusPayload{
		Organization:      orgSummary{ID: org.ID, Name: org.Name},
		OverallStatus:     status.Overall(services),
		Services:          services,
		ActiveIncidents:   active,
		ResolvedIncidents: resolved,
	})
}

// streamStatus serves the live status page feed over server-sent events.
// Each event carries the full snapshot; the client replaces its state
// rather than patching it, mirroring the synchronizer model.
func (s *Server) streamStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	orgID := r.PathValue("orgID")

	org, err := s.dir.Organizations.Get(ctx, orgID)
	if err != nil {
		sendStoreError(w, log, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		sendError(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED", "response writer does not support streaming")
		return
	}

	svcSync := projection.NewServices(s.dir.Services, orgID)
	if err := svcSync.Start(ctx); err != nil {
		sendStoreError(w, log, err)
		return
	}

	incSync := projection.NewIncidents(s.dir.Incidents, orgID)
	if err := incSync.Start(ctx); err != nil {
		sendStoreError(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	metrics := telemetry.GetMetrics()
	metrics.StatusStreamsActive.Add(ctx, 1)
	defer metrics.StatusStreamsActive.Add(ctx, -1)

	summary := orgSummary{ID: org.ID, Name: org.Name}

	svcCh := svcSync.Subscribe(ctx)
	incCh := incSync.Subscribe(ctx)

	write := func() bool {
		services := svcSync.Snapshot()
		payload := statusPayload{
			Organization:      summary,
			OverallStatus:     status.Overall(services),
			Services:          services,
			ActiveIncidents:   incSync.Active(),
			ResolvedIncidents: incSync.Resolved(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal status payload")
			return false
		}

		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		metrics.StatusSnapshotsTotal.Add(ctx, 1)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-svcCh:
			if !ok {
				s.endStream(w, flusher, svcSync.Err())
				return
			}
			if !write() {
				return
			}
		case _, ok := <-incCh:
			if !ok {
				s.endStream(w, flusher, incSync.Err())
				return
			}
			if !write() {
				return
			}
		}
	}
}

// endStream reports a lost subscription to the client as an explicit error
// event rather than leaving the stream hanging.
func (s *Server) endStream(w http.ResponseWriter, flusher http.Flusher, err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: error\ndata: %q\n\n", err.Error())
	flusher.Flush()
}
