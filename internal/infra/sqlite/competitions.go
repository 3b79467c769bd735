package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dayquest/dayquest/internal/domain"
)

// ─── Competition Repository ─────────────────────────────────────────────────

const competitionColumns = `c.id, c.name, c.description, c.creator_id, c.start_date, c.end_date, c.created_at`

type competitionRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CreatorID   string `db:"creator_id"`
	StartDate   int64  `db:"start_date"`
	EndDate     int64  `db:"end_date"`
	CreatedAt   int64  `db:"created_at"`
}

func (r competitionRow) toDomain() domain.Competition {
	return domain.Competition{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatorID:   r.CreatorID,
		StartDate:   fromMillis(r.StartDate),
		EndDate:     fromMillis(r.EndDate),
		CreatedAt:   fromMillis(r.CreatedAt),
	}
}

type participantRow struct {
	CompetitionID string `db:"competition_id"`
	UserID        string `db:"user_id"`
}

// InsertCompetition stores a competition and its participant list.
func (q *Queries) InsertCompetition(ctx context.Context, c domain.Competition) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO competitions (id, name, description, creator_id, start_date, end_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatorID,
		toMillis(c.StartDate), toMillis(c.EndDate), toMillis(c.CreatedAt),
	)
	if err != nil {
		return err
	}
	for _, p := range c.Participants {
		if _, err := q.q.ExecContext(ctx,
			`INSERT OR IGNORE INTO competition_participants (competition_id, user_id) VALUES (?, ?)`,
			c.ID, p,
		); err != nil {
			return err
		}
	}
	return nil
}

// AddParticipant enrolls userID in a competition.
func (q *Queries) AddParticipant(ctx context.Context, competitionID, userID string) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO competition_participants (competition_id, user_id) VALUES (?, ?)`,
		competitionID, userID,
	)
	return err
}

// CloseCompetition moves a competition's window to [start, end].
func (q *Queries) CloseCompetition(ctx context.Context, id string, start, end time.Time) (bool, error) {
	res, err := q.q.ExecContext(ctx,
		`UPDATE competitions SET start_date = ?, end_date = ? WHERE id = ?`,
		toMillis(start), toMillis(end), id,
	)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// CompetitionByID loads a competition with its participants.
func (q *Queries) CompetitionByID(ctx context.Context, id string) (domain.Competition, error) {
	var row competitionRow
	err := sqlx.GetContext(ctx, q.q, &row,
		`SELECT `+competitionColumns+` FROM competitions c WHERE c.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Competition{}, domain.ErrCompetitionNotFound
	}
	if err != nil {
		return domain.Competition{}, err
	}

	comps, err := q.attachParticipants(ctx, []competitionRow{row})
	if err != nil {
		return domain.Competition{}, err
	}
	return comps[0], nil
}

// CompetitionsFor lists the competitions userID takes part in, most recent
// start first.
func (q *Queries) CompetitionsFor(ctx context.Context, userID string) ([]domain.Competition, error) {
	var rows []competitionRow
	err := sqlx.SelectContext(ctx, q.q, &rows,
		`SELECT `+competitionColumns+` FROM competitions c
		 JOIN competition_participants p ON p.competition_id = c.id
		 WHERE p.user_id = ?
		 ORDER BY c.start_date DESC, c.id`, userID)
	if err != nil {
		return nil, err
	}
	return q.attachParticipants(ctx, rows)
}

func (q *Queries) attachParticipants(ctx context.Context, rows []competitionRow) ([]domain.Competition, error) {
	comps := make([]domain.Competition, len(rows))
	if len(rows) == 0 {
		return comps, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	query, args, err := sqlx.In(
		`SELECT competition_id, user_id FROM competition_participants
		 WHERE competition_id IN (?) ORDER BY user_id`, ids)
	if err != nil {
		return nil, err
	}
	var parts []participantRow
	if err := sqlx.SelectContext(ctx, q.q, &parts, q.q.Rebind(query), args...); err != nil {
		return nil, err
	}

	byComp := make(map[string][]string, len(rows))
	for _, p := range parts {
		byComp[p.CompetitionID] = append(byComp[p.CompetitionID], p.UserID)
	}
	for i, r := range rows {
		comps[i] = r.toDomain()
		comps[i].Participants = byComp[r.ID]
	}
	return comps, nil
}
