package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/statusdeck/statusdeck/internal/logger"
	"github.com/statusdeck/statusdeck/internal/models"
)

// SeedCmd loads a fixture file into the store. It is meant for local
// development against the memory store and for priming a fresh postgres
// database.
type SeedCmd struct {
	File string `arg:"" help:"fixture file to load" type:"existingfile"`

	Store StoreFlags `embed:""`
}

type fixture struct {
	Organizations []fixtureOrganization `yaml:"organizations"`
}

type fixtureOrganization struct {
	Name      string            `yaml:"name"`
	Members   []fixtureMember   `yaml:"members"`
	Services  []fixtureService  `yaml:"services"`
	Incidents []fixtureIncident `yaml:"incidents"`
}

type fixtureMember struct {
	UID         string `yaml:"uid"`
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
}

type fixtureService struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

type fixtureIncident struct {
	Title    string   `yaml:"title"`
	Impact   string   `yaml:"impact"`
	Status   string   `yaml:"status"`
	Message  string   `yaml:"message"`
	Services []string `yaml:"services"`
}

func (c *SeedCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read fixture file: %w", err)
	}

	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("failed to parse fixture file: %w", err)
	}

	dir, closeStore, err := c.Store.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	for _, fo := range fx.Organizations {
		if len(fo.Members) == 0 {
			return fmt.Errorf("organization %q needs at least one member", fo.Name)
		}

		org := &models.Organization{Name: fo.Name, OwnerID: fo.Members[0].UID}
		for _, m := range fo.Members {
			org.Members = append(org.Members, m.UID)
		}

		if err := dir.Organizations.Create(ctx, org); err != nil {
			return fmt.Errorf("failed to create organization %q: %w", fo.Name, err)
		}

		for _, m := range fo.Members {
			err := dir.Users.Create(ctx, &models.UserProfile{
				UID:            m.UID,
				Email:          m.Email,
				DisplayName:    m.DisplayName,
				OrganizationID: org.ID,
			})
			if err != nil {
				return fmt.Errorf("failed to create user %q: %w", m.Email, err)
			}
		}

		refs := make(map[string]models.ServiceRef, len(fo.Services))
		for _, fs := range fo.Services {
			svcStatus := models.ServiceStatus(fs.Status)
			if !svcStatus.Valid() {
				return fmt.Errorf("service %q has unknown status %q", fs.Name, fs.Status)
			}

			svc := &models.Service{Name: fs.Name, Status: svcStatus}
			if err := dir.Services.Create(ctx, org.ID, svc); err != nil {
				return fmt.Errorf("failed to create service %q: %w", fs.Name, err)
			}
			refs[fs.Name] = models.ServiceRef{ID: svc.ID, Name: svc.Name}
		}

		for _, fi := range fo.Incidents {
			incident, err := buildFixtureIncident(fi, refs)
			if err != nil {
				return err
			}
			if err := dir.Incidents.Create(ctx, org.ID, incident); err != nil {
				return fmt.Errorf("failed to create incident %q: %w", fi.Title, err)
			}
		}

		log.Info().
			Str("org_id", org.ID).
			Str("name", org.Name).
			Int("members", len(fo.Members)).
			Int("services", len(fo.Services)).
			Int("incidents", len(fo.Incidents)).
			Msg("Seeded organization")
	}

	return nil
}

func buildFixtureIncident(fi fixtureIncident, refs map[string]models.ServiceRef) (*models.Incident, error) {
	incidentStatus := models.IncidentStatus(fi.Status)
	if !incidentStatus.Valid() {
		return nil, fmt.Errorf("incident %q has unknown status %q", fi.Title, fi.Status)
	}
	impact := models.IncidentImpact(fi.Impact)
	if !impact.Valid() {
		return nil, fmt.Errorf("incident %q has unknown impact %q", fi.Title, fi.Impact)
	}

	var affected []models.ServiceRef
	for _, name := range fi.Services {
		ref, ok := refs[name]
		if !ok {
			return nil, fmt.Errorf("incident %q references unknown service %q", fi.Title, name)
		}
		affected = append(affected, ref)
	}

	now := time.Now()
	incident := &models.Incident{
		Title:            fi.Title,
		Status:           incidentStatus,
		Impact:           impact,
		AffectedServices: affected,
		Updates: []models.IncidentUpdate{{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Message:   fi.Message,
			Status:    incidentStatus,
			CreatedAt: now,
		}},
	}
	if incidentStatus == models.IncidentResolved {
		incident.ResolvedAt = &now
	}

	return incident, nil
}
