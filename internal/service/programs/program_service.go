package programs

import (
	"context"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/Domenick1991/tutorbooking/internal/repository"
	"go.uber.org/zap"
)

type ProgramUseCase interface {
	List(ctx context.Context) ([]domain.Program, error)
	GetByID(ctx context.Context, id int64) (*domain.Program, error)
}

// ProgramCache is read-through: a nil result with a nil error is a miss.
type ProgramCache interface {
	GetPrograms(ctx context.Context) ([]domain.Program, error)
	SetPrograms(ctx context.Context, programs []domain.Program) error
	GetProgram(ctx context.Context, id int64) (*domain.Program, error)
	SetProgram(ctx context.Context, program *domain.Program) error
}

type ProgramService struct {
	repo   repository.ProgramRepository
	cache  ProgramCache
	logger *zap.Logger
}

func NewProgramService(repo repository.ProgramRepository, cache ProgramCache, logger *zap.Logger) *ProgramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramService{repo: repo, cache: cache, logger: logger}
}

func (s *ProgramService) List(ctx context.Context) ([]domain.Program, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetPrograms(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetPrograms(ctx, programs); err != nil {
			s.logger.Warn("cache programs", zap.Error(err))
		}
	}
	return programs, nil
}

func (s *ProgramService) GetByID(ctx context.Context, id int64) (*domain.Program, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetProgram(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	program, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetProgram(ctx, program); err != nil {
			s.logger.Warn("cache program", zap.Int64("program_id", id), zap.Error(err))
		}
	}
	return program, nil
}

var _ ProgramUseCase = (*ProgramService)(nil)
