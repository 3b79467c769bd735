// Package competition manages time-boxed competitions between a handful of
// users. Leaderboards are derived on read from the participants' completed
// tasks and never stored.
package competition

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dayquest/dayquest/internal/app/gamification"
	"github.com/dayquest/dayquest/internal/domain"
	"github.com/dayquest/dayquest/internal/infra/sqlite"
)

// Service creates competitions and ranks their participants.
type Service struct {
	db  *sqlite.DB
	log *slog.Logger
	now func() time.Time
}

// NewService creates a competition service.
func NewService(db *sqlite.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, log: logger, now: time.Now}
}

// SetClock replaces the time source. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateInput describes a new competition. The creator joins implicitly.
type CreateInput struct {
	Name           string
	Description    string
	StartDate      time.Time
	EndDate        time.Time
	ParticipantIDs []string
}

// Create validates and stores a competition.
func (s *Service) Create(ctx context.Context, creatorID string, in CreateInput) (domain.Competition, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Competition{}, fmt.Errorf("%w: name is required", domain.ErrInvalidArgument)
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	if !in.StartDate.After(now) {
		return domain.Competition{}, domain.ErrStartInPast
	}
	if !in.EndDate.After(in.StartDate) {
		return domain.Competition{}, fmt.Errorf("%w: end date must be after start date", domain.ErrInvalidArgument)
	}

	participants := []string{creatorID}
	for _, id := range in.ParticipantIDs {
		id = strings.TrimSpace(id)
		if id != "" && !slices.Contains(participants, id) {
			participants = append(participants, id)
		}
	}
	if len(participants) > domain.MaxCompetitionParticipants {
		return domain.Competition{}, fmt.Errorf("%w: %d including the creator, max %d",
			domain.ErrTooManyParticipants, len(participants), domain.MaxCompetitionParticipants)
	}

	c := domain.Competition{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		CreatorID:    creatorID,
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		Participants: participants,
		CreatedAt:    now,
	}

	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		known, err := q.UsersByIDs(ctx, participants)
		if err != nil {
			return fmt.Errorf("load participants: %w", err)
		}
		if len(known) != len(participants) {
			return domain.ErrUnknownParticipant
		}
		return q.InsertCompetition(ctx, c)
	})
	if err != nil {
		return domain.Competition{}, err
	}

	slices.Sort(c.Participants)
	s.log.Info("competition created",
		"competition_id", c.ID,
		"creator_id", creatorID,
		"participants", len(c.Participants),
	)
	return c, nil
}

// List returns the competitions userID takes part in.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Competition, error) {
	return s.db.CompetitionsFor(ctx, userID)
}

// Get returns a competition visible to userID. Outsiders get
// domain.ErrCompetitionNotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (domain.Competition, error) {
	c, err := s.db.CompetitionByID(ctx, id)
	if err != nil {
		return domain.Competition{}, err
	}
	if userID != "" && !c.HasParticipant(userID) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	return c, nil
}

// Leaderboard ranks the participants of a competition by points earned
// inside its window. An empty userID skips the membership check.
func (s *Service) Leaderboard(ctx context.Context, userID, id string) (domain.Competition, []domain.LeaderboardEntry, error) {
	c, err := s.Get(ctx, userID, id)
	if err != nil {
		return domain.Competition{}, nil, err
	}

	var (
		users []domain.User
		byID  map[string][]domain.Task
	)
	err = s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		var err error
		if users, err = q.UsersByIDs(ctx, c.Participants); err != nil {
			return fmt.Errorf("load participants: %w", err)
		}
		byID, err = q.CompletedBetween(ctx, c.Participants, c.StartDate, c.EndDate)
		if err != nil {
			return fmt.Errorf("load completions: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Competition{}, nil, err
	}

	participants := make([]gamification.Participant, len(users))
	for i, u := range users {
		participants[i] = gamification.Participant{UserID: u.ID, Username: u.Username}
	}
	board, err := gamification.ComputeLeaderboard(participants, byID, c.StartDate, c.EndDate)
	if err != nil {
		return domain.Competition{}, nil, err
	}
	return c, board, nil
}

// Join enrolls userID in a competition that has not ended yet. Joining is
// open to anyone holding the id until the competition is full.
func (s *Service) Join(ctx context.Context, userID, id string) (domain.Competition, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	var c domain.Competition
	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		var err error
		if c, err = q.CompetitionByID(ctx, id); err != nil {
			return err
		}
		switch {
		case !now.Before(c.EndDate):
			return domain.ErrCompetitionEnded
		case c.HasParticipant(userID):
			return domain.ErrAlreadyParticipant
		case len(c.Participants) >= domain.MaxCompetitionParticipants:
			return domain.ErrCompetitionFull
		}
		if err := q.AddParticipant(ctx, c.ID, userID); err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
		c.Participants = append(c.Participants, userID)
		return nil
	})
	if err != nil {
		return domain.Competition{}, err
	}

	slices.Sort(c.Participants)
	s.log.Info("competition joined",
		"competition_id", c.ID,
		"user_id", userID,
		"participants", len(c.Participants),
	)
	return c, nil
}

// End closes a running or upcoming competition at the current time. Only
// its creator may end it. A competition that has not started collapses to
// an empty window.
func (s *Service) End(ctx context.Context, userID, id string) (domain.Competition, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	var c domain.Competition
	err := s.db.WithTx(ctx, func(q *sqlite.Queries) error {
		var err error
		if c, err = q.CompetitionByID(ctx, id); err != nil {
			return err
		}
		if !c.HasParticipant(userID) {
			return domain.ErrCompetitionNotFound
		}
		if c.CreatorID != userID {
			return domain.ErrNotCreator
		}
		if !now.Before(c.EndDate) {
			return domain.ErrCompetitionEnded
		}
		if now.Before(c.StartDate) {
			c.StartDate = now
		}
		c.EndDate = now
		if _, err := q.CloseCompetition(ctx, c.ID, c.StartDate, c.EndDate); err != nil {
			return fmt.Errorf("close competition: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Competition{}, err
	}

	s.log.Info("competition ended",
		"competition_id", c.ID,
		"creator_id", userID,
	)
	return c, nil
}
