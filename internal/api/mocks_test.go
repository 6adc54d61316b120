package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/service/economy"
	"github.com/phrazzld/studyquest/internal/service/study"
	"github.com/stretchr/testify/mock"
)

// mockEconomyService implements economy.Service with per-method functions.
type mockEconomyService struct {
	WalletFn        func(ctx context.Context, userID uuid.UUID) (*economy.WalletView, error)
	DiscountsFn     func(ctx context.Context, userID uuid.UUID) (domain.Gems, error)
	EffectiveCostFn func(ctx context.Context, userID, topicID uuid.UUID) (*economy.CostQuote, error)
	CanAffordFn     func(ctx context.Context, userID uuid.UUID, cost domain.Gems) (bool, error)
	PurchaseFn      func(ctx context.Context, userID, topicID uuid.UUID) (*economy.PurchaseResult, error)
	NobleProgressFn func(ctx context.Context, userID uuid.UUID) (*economy.NobleReport, error)
}

var _ economy.Service = (*mockEconomyService)(nil)

func (m *mockEconomyService) Wallet(ctx context.Context, userID uuid.UUID) (*economy.WalletView, error) {
	return m.WalletFn(ctx, userID)
}

func (m *mockEconomyService) Discounts(ctx context.Context, userID uuid.UUID) (domain.Gems, error) {
	return m.DiscountsFn(ctx, userID)
}

func (m *mockEconomyService) EffectiveCost(ctx context.Context, userID, topicID uuid.UUID) (*economy.CostQuote, error) {
	return m.EffectiveCostFn(ctx, userID, topicID)
}

func (m *mockEconomyService) CanAfford(ctx context.Context, userID uuid.UUID, cost domain.Gems) (bool, error) {
	return m.CanAffordFn(ctx, userID, cost)
}

func (m *mockEconomyService) Purchase(ctx context.Context, userID, topicID uuid.UUID) (*economy.PurchaseResult, error) {
	return m.PurchaseFn(ctx, userID, topicID)
}

func (m *mockEconomyService) NobleProgress(ctx context.Context, userID uuid.UUID) (*economy.NobleReport, error) {
	return m.NobleProgressFn(ctx, userID)
}

// mockStudyService is a testify mock of study.Service.
type mockStudyService struct {
	mock.Mock
}

var _ study.Service = (*mockStudyService)(nil)

func (m *mockStudyService) CompleteSession(ctx context.Context, userID, topicID uuid.UUID, score int) (*study.SessionResult, error) {
	args := m.Called(ctx, userID, topicID, score)
	if result, ok := args.Get(0).(*study.SessionResult); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStudyService) MoveTopic(ctx context.Context, userID, topicID uuid.UUID, stage domain.Stage) (*domain.Topic, error) {
	args := m.Called(ctx, userID, topicID, stage)
	if topic, ok := args.Get(0).(*domain.Topic); ok {
		return topic, args.Error(1)
	}
	return nil, args.Error(1)
}
