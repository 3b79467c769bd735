package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dayquest/dayquest/internal/app/competition"
	"github.com/dayquest/dayquest/internal/domain"
)

// ─── /api/competitions ──────────────────────────────────────────────────────

type createCompetitionRequest struct {
	Name           string    `json:"name" validate:"required,max=100"`
	Description    string    `json:"description" validate:"max=1000"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	ParticipantIDs []string  `json:"participant_ids" validate:"dive,required"`
}

type leaderboardResponse struct {
	Competition domain.Competition        `json:"competition"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

func (s *Server) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	list, err := s.competitions.List(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Competition{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"competitions": list,
	})
}

func (s *Server) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req createCompetitionRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	c, err := s.competitions.Create(r.Context(), userID(r), competition.CreateInput{
		Name:           req.Name,
		Description:    req.Description,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleGetCompetition returns the competition together with its current
// leaderboard.
func (s *Server) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	c, entries, ok := s.leaderboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Competition: c, Leaderboard: entries})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	_, entries, ok := s.leaderboard(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leaderboard": entries,
	})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) (domain.Competition, []domain.LeaderboardEntry, bool) {
	c, entries, err := s.competitions.Leaderboard(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return domain.Competition{}, nil, false
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return c, entries, true
}

func (s *Server) handleJoinCompetition(w http.ResponseWriter, r *http.Request) {
	c, err := s.competitions.Join(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleEndCompetition(w http.ResponseWriter, r *http.Request) {
	c, err := s.competitions.End(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
