package server

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/statusdeck/statusdeck/internal/manage"
	"github.com/statusdeck/statusdeck/internal/models"
	"github.com/statusdeck/statusdeck/internal/session"
	"github.com/statusdeck/statusdeck/internal/status"
)

type serviceRequest struct {
	Name   string               `json:"name"`
	Status models.ServiceStatus `json:"status"`
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	services, err := s.dir.Services.List(r.Context(), sess.OrganizationID())
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	status.SortServices(services)
	sendJSON(w, http.StatusOK, services)
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req serviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	svc, err := s.services.Create(r.Context(), sess.OrganizationID(), req.Name, req.Status)
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusCreated, svc)
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req serviceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.services.Update(r.Context(), sess.OrganizationID(), r.PathValue("id"), req.Name, req.Status)
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	err := s.services.Delete(r.Context(), sess.OrganizationID(), r.PathValue("id"))
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) listIncidents(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	incidents, err := s.dir.Incidents.List(r.Context(), sess.OrganizationID())
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	status.SortByCreatedDesc(incidents)
	sendJSON(w, http.StatusOK, incidents)
}

type incidentRequest struct {
	Title              string                `json:"title"`
	Impact             models.IncidentImpact `json:"impact"`
	Status             models.IncidentStatus `json:"status"`
	AffectedServiceIDs []string              `json:"affected_service_ids"`
	Message            string                `json:"message"`
}

func (s *Server) createIncident(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req incidentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	incident, err := s.incidents.Create(r.Context(), sess.OrganizationID(), manage.CreateIncidentParams{
		Title:              req.Title,
		Impact:             req.Impact,
		Status:             req.Status,
		AffectedServiceIDs: req.AffectedServiceIDs,
		Message:            req.Message,
	})
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusCreated, incident)
}

// incidentView is an incident with its timeline in presentation order,
// newest update first.
type incidentView struct {
	*models.Incident
	Updates []models.IncidentUpdate `json:"updates"`
}

func (s *Server) getIncident(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	incident, err := s.dir.Incidents.Get(r.Context(), sess.OrganizationID(), r.PathValue("id"))
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusOK, incidentView{
		Incident: incident,
		Updates:  status.Timeline(incident),
	})
}

type incidentUpdateRequest struct {
	Message string                `json:"message"`
	Status  models.IncidentStatus `json:"status"`
}

func (s *Server) appendIncidentUpdate(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req incidentUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	update, err := s.incidents.AppendUpdate(r.Context(), sess.OrganizationID(), r.PathValue("id"), req.Message, req.Status)
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusCreated, update)
}

type teamResponse struct {
	Organization *models.Organization  `json:"organization"`
	Members      []*models.UserProfile `json:"members"`
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	org, members, err := s.team.Roster(r.Context(), sess.OrganizationID())
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusOK, teamResponse{Organization: org, Members: members})
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (s *Server) inviteMember(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req inviteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := s.team.Invite(r.Context(), sess.OrganizationID(), req.Email)
	if err != nil {
		sendStoreError(w, zerolog.Ctx(r.Context()), err)
		return
	}

	sendJSON(w, http.StatusOK, profile)
}
