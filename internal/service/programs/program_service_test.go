package programs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/tutorbooking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProgramRepository struct {
	mock.Mock
}

func (m *MockProgramRepository) List(ctx context.Context) ([]domain.Program, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Program), args.Error(1)
}

func (m *MockProgramRepository) GetByID(ctx context.Context, id int64) (*domain.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetPrograms(ctx context.Context) ([]domain.Program, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Program), args.Error(1)
}

func (m *MockCache) SetPrograms(ctx context.Context, programs []domain.Program) error {
	args := m.Called(ctx, programs)
	return args.Error(0)
}

func (m *MockCache) GetProgram(ctx context.Context, id int64) (*domain.Program, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Program), args.Error(1)
}

func (m *MockCache) SetProgram(ctx context.Context, program *domain.Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func testPrograms() []domain.Program {
	return []domain.Program{
		{
			ID:          4,
			Name:        "Math Boost",
			BasePrice:   decimal.NewFromInt(1000),
			MinSessions: 4,
			Setting:     domain.SettingHub,
			Days:        []string{"monday", "wednesday"},
			StartTime:   16 * time.Hour,
			EndTime:     17 * time.Hour,
		},
	}
}

func TestProgramService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockProgramRepository{}
	mockCache := &MockCache{}
	service := NewProgramService(mockRepo, mockCache, nil)
	ctx := context.Background()
	programs := testPrograms()

	mockCache.On("GetPrograms", ctx).Return(([]domain.Program)(nil), nil).Once()
	mockRepo.On("List", ctx).Return(programs, nil).Once()
	mockCache.On("SetPrograms", ctx, programs).Return(nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, programs, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestProgramService_List_CacheHit(t *testing.T) {
	mockRepo := &MockProgramRepository{}
	mockCache := &MockCache{}
	service := NewProgramService(mockRepo, mockCache, nil)
	ctx := context.Background()
	programs := testPrograms()

	mockCache.On("GetPrograms", ctx).Return(programs, nil).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, programs, result)
	mockRepo.AssertNotCalled(t, "List")
	mockCache.AssertNotCalled(t, "SetPrograms")
}

func TestProgramService_List_CacheErrorFallsThrough(t *testing.T) {
	mockRepo := &MockProgramRepository{}
	mockCache := &MockCache{}
	service := NewProgramService(mockRepo, mockCache, nil)
	ctx := context.Background()
	programs := testPrograms()

	mockCache.On("GetPrograms", ctx).Return(([]domain.Program)(nil), errors.New("cache error")).Once()
	mockRepo.On("List", ctx).Return(programs, nil).Once()
	mockCache.On("SetPrograms", ctx, programs).Return(errors.New("cache error")).Once()

	result, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Equal(t, programs, result)
	mockRepo.AssertExpectations(t)
}

func TestProgramService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockProgramRepository{}
	mockCache := &MockCache{}
	service := NewProgramService(mockRepo, mockCache, nil)
	ctx := context.Background()

	expectedErr := errors.New("database error")
	mockCache.On("GetPrograms", ctx).Return(([]domain.Program)(nil), nil).Once()
	mockRepo.On("List", ctx).Return([]domain.Program{}, expectedErr).Once()

	result, err := service.List(ctx)

	assert.Equal(t, expectedErr, err)
	assert.Nil(t, result)
	mockCache.AssertNotCalled(t, "SetPrograms")
}

func TestProgramService_GetByID(t *testing.T) {
	program := &testPrograms()[0]

	t.Run("cache miss", func(t *testing.T) {
		mockRepo := &MockProgramRepository{}
		mockCache := &MockCache{}
		service := NewProgramService(mockRepo, mockCache, nil)
		ctx := context.Background()

		mockCache.On("GetProgram", ctx, int64(4)).Return(nil, nil).Once()
		mockRepo.On("GetByID", ctx, int64(4)).Return(program, nil).Once()
		mockCache.On("SetProgram", ctx, program).Return(nil).Once()

		result, err := service.GetByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, program, result)
		mockCache.AssertExpectations(t)
	})

	t.Run("cache hit", func(t *testing.T) {
		mockRepo := &MockProgramRepository{}
		mockCache := &MockCache{}
		service := NewProgramService(mockRepo, mockCache, nil)
		ctx := context.Background()

		mockCache.On("GetProgram", ctx, int64(4)).Return(program, nil).Once()

		result, err := service.GetByID(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "Math Boost", result.Name)
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := &MockProgramRepository{}
		service := NewProgramService(mockRepo, nil, nil)
		ctx := context.Background()

		mockRepo.On("GetByID", ctx, int64(9)).Return(nil, domain.NotFoundf("program 9 not found")).Once()

		_, err := service.GetByID(ctx, 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
