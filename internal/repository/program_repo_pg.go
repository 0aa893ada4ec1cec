package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type ProgramRepository interface {
	List(ctx context.Context) ([]domain.Program, error)
	GetByID(ctx context.Context, id int64) (*domain.Program, error)
}

type PGProgramRepository struct {
	db DB
}

func NewProgramRepository(db DB) ProgramRepository {
	return &PGProgramRepository{db: db}
}

const programColumns = `id, name, base_price, min_sessions, setting, days, start_time, end_time, created_at, updated_at`

func (r *PGProgramRepository) List(ctx context.Context) ([]domain.Program, error) {
	rows, err := r.db.Query(ctx, `SELECT `+programColumns+` FROM programs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	programs := make([]domain.Program, 0)
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, *p)
	}
	return programs, rows.Err()
}

func (r *PGProgramRepository) GetByID(ctx context.Context, id int64) (*domain.Program, error) {
	p, err := scanProgram(r.db.QueryRow(ctx, `SELECT `+programColumns+` FROM programs WHERE id=$1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFoundf("program %d not found", id)
		}
		return nil, fmt.Errorf("get program: %w", err)
	}
	return p, nil
}

func scanProgram(row pgx.Row) (*domain.Program, error) {
	var (
		p          domain.Program
		setting    string
		start, end pgtype.Time
	)
	if err := row.Scan(&p.ID, &p.Name, &p.BasePrice, &p.MinSessions, &setting, &p.Days, &start, &end, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Setting = domain.Setting(setting)
	p.StartTime = time.Duration(start.Microseconds) * time.Microsecond
	p.EndTime = time.Duration(end.Microseconds) * time.Microsecond
	return &p, nil
}

type TutorRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type PGTutorRepository struct {
	db DB
}

func NewTutorRepository(db DB) TutorRepository {
	return &PGTutorRepository{db: db}
}

func (r *PGTutorRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tutors WHERE id=$1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check tutor: %w", err)
	}
	return exists, nil
}

var (
	_ ProgramRepository = (*PGProgramRepository)(nil)
	_ TutorRepository   = (*PGTutorRepository)(nil)
)
