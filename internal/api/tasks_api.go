package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dayquest/dayquest/internal/app/tasks"
	"github.com/dayquest/dayquest/internal/domain"
)

// ─── /api/tasks ─────────────────────────────────────────────────────────────

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=2000"`
	Difficulty  string     `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	DueDate     *time.Time `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	Difficulty  *string    `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	DueDate     *time.Time `json:"due_date"`
}

type completeTaskRequest struct {
	Reflection string `json:"reflection" validate:"required,max=2000"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.List(r.Context(), userID(r), r.URL.Query().Get("status"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": list,
	})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	task, err := s.tasks.Create(r.Context(), userID(r), tasks.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  domain.Difficulty(req.Difficulty),
		DueDate:     req.DueDate,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	in := tasks.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if req.Difficulty != nil {
		d := domain.Difficulty(*req.Difficulty)
		in.Difficulty = &d
	}
	task, err := s.tasks.Update(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := s.decode(r, &req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	done, err := s.tasks.Complete(r.Context(), userID(r), chi.URLParam(r, "id"), req.Reflection)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	del, err := s.tasks.Delete(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, del)
}

func (s *Server) handleTaskStats(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 7)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	stats, err := s.tasks.Stats(r.Context(), userID(r), days)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
