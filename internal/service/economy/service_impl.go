package economy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/domain"
	econ "github.com/phrazzld/studyquest/internal/domain/economy"
	"github.com/phrazzld/studyquest/internal/events"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/store"
)

// recentTransactions is how many ledger entries Wallet returns.
const recentTransactions = 20

// economyServiceImpl implements the Service interface
type economyServiceImpl struct {
	tx        store.Transactor
	catalog   *econ.Catalog
	emitter   events.EventEmitter
	discounts *discountCache
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new economy service.
// It returns an error if any of the required dependencies are nil.
// The emitter may be nil, in which case no events are published.
func NewService(
	tx store.Transactor,
	catalog *econ.Catalog,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if catalog == nil {
		return nil, domain.NewValidationError("catalog", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		return nil, domain.NewValidationError("logger", "cannot be nil", domain.ErrValidation)
	}

	return &economyServiceImpl{
		tx:        tx,
		catalog:   catalog,
		emitter:   emitter,
		discounts: newDiscountCache(),
		logger:    logger.With(slog.String("component", "economy_service")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Wallet implements Service.Wallet
func (s *economyServiceImpl) Wallet(ctx context.Context, userID uuid.UUID) (*WalletView, error) {
	stores := s.tx.Stores()

	wallet, err := stores.Wallets.Get(ctx, userID)
	if err != nil {
		return nil, NewServiceError("get_wallet", "failed to load wallet", err)
	}
	discounts, err := s.Discounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	txns, err := stores.Transactions.ListByUser(ctx, userID, recentTransactions)
	if err != nil {
		return nil, NewServiceError("get_wallet", "failed to load transactions", err)
	}

	return &WalletView{Wallet: wallet, Discounts: discounts, Transactions: txns}, nil
}

// Discounts implements Service.Discounts
func (s *economyServiceImpl) Discounts(ctx context.Context, userID uuid.UUID) (domain.Gems, error) {
	cached, generation, ok := s.discounts.get(userID)
	if ok {
		return cached, nil
	}

	gems, err := s.tx.Stores().Topics.PurchasedDiscountGems(ctx, userID)
	if err != nil {
		return domain.Gems{}, NewServiceError("get_discounts", "failed to load purchased topics", err)
	}
	discounts := econ.DiscountsFrom(gems)
	s.discounts.put(userID, generation, discounts)
	return discounts, nil
}

// EffectiveCost implements Service.EffectiveCost
func (s *economyServiceImpl) EffectiveCost(ctx context.Context, userID, topicID uuid.UUID) (*CostQuote, error) {
	stores := s.tx.Stores()

	topic, err := stores.Topics.GetByID(ctx, topicID)
	if err != nil {
		return nil, topicError("effective_cost", err)
	}
	if topic.UserID != userID {
		return nil, ErrTopicNotFound
	}

	discounts, err := s.Discounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallet, err := stores.Wallets.Get(ctx, userID)
	if err != nil {
		return nil, NewServiceError("effective_cost", "failed to load wallet", err)
	}

	return &CostQuote{
		TopicID: topic.ID,
		Quote:   econ.NewQuote(s.catalog.BaseCost(topic), discounts, wallet.Balance),
	}, nil
}

// CanAfford implements Service.CanAfford
func (s *economyServiceImpl) CanAfford(ctx context.Context, userID uuid.UUID, cost domain.Gems) (bool, error) {
	if cost.IsNegative() {
		return false, domain.NewValidationError("cost", "amounts must not be negative", domain.ErrValidation)
	}
	wallet, err := s.tx.Stores().Wallets.Get(ctx, userID)
	if err != nil {
		return false, NewServiceError("can_afford", "failed to load wallet", err)
	}
	return econ.CanAfford(wallet.Balance, cost), nil
}

// Purchase implements Service.Purchase
func (s *economyServiceImpl) Purchase(ctx context.Context, userID, topicID uuid.UUID) (*PurchaseResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()),
	)
	now := s.now()

	var result *PurchaseResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		topic, err := st.Topics.GetForUpdate(ctx, topicID)
		if err != nil {
			return topicError("purchase", err)
		}
		if topic.UserID != userID {
			return ErrTopicNotFound
		}
		if topic.Purchased {
			return ErrAlreadyPurchased
		}
		if topic.Stage != domain.StageMastered {
			return ErrNotEligible
		}

		wallet, err := st.Wallets.GetForUpdate(ctx, userID)
		if err != nil {
			return NewServiceError("purchase", "failed to lock wallet", err)
		}
		// Read the profile inside the transaction; the cache may lag a
		// purchase committed by another instance.
		purchased, err := st.Topics.PurchasedDiscountGems(ctx, userID)
		if err != nil {
			return NewServiceError("purchase", "failed to load purchased topics", err)
		}
		discounts := econ.DiscountsFrom(purchased)

		quote := econ.NewQuote(s.catalog.BaseCost(topic), discounts, wallet.Balance)
		if !quote.Affordable {
			return &InsufficientFundsError{
				Short:   quote.Short,
				Cost:    quote.Effective,
				Balance: wallet.Balance,
			}
		}
		if err := wallet.Debit(quote.Effective); err != nil {
			return NewServiceError("purchase", "failed to debit wallet", err)
		}

		prestige := s.catalog.Prestige.For(topic.Difficulty)
		wallet.Prestige += prestige
		wallet.UpdatedAt = now

		if err := st.Topics.MarkPurchased(ctx, topic.ID, now); err != nil {
			return NewServiceError("purchase", "failed to mark topic purchased", err)
		}
		topic.Purchased = true
		topic.UpdatedAt = now

		txn := domain.NewPurchaseTransaction(userID, topic.ID, quote.Effective, prestige, now)
		if err := st.Transactions.Append(ctx, txn); err != nil {
			return NewServiceError("purchase", "failed to record transaction", err)
		}

		discounts = discounts.With(topic.DiscountGem, discounts.Get(topic.DiscountGem)+1)
		earned, err := s.claimCompleted(ctx, st, wallet, discounts, now)
		if err != nil {
			return err
		}

		if err := st.Wallets.Save(ctx, wallet); err != nil {
			return NewServiceError("purchase", "failed to save wallet", err)
		}

		result = &PurchaseResult{
			Topic:        topic,
			Wallet:       wallet,
			Transaction:  txn,
			NoblesEarned: earned,
		}
		return nil
	})
	if err != nil {
		if isBusinessError(err) {
			log.DebugContext(ctx, "purchase rejected", slog.String("reason", err.Error()))
		} else {
			log.ErrorContext(ctx, "purchase failed", slog.String("error", err.Error()))
		}
		return nil, err
	}

	s.discounts.invalidate(userID)

	log.InfoContext(ctx, "topic purchased",
		slog.String("transaction_id", result.Transaction.ID),
		slog.Int("prestige", result.Transaction.Prestige),
		slog.Int("nobles_earned", len(result.NoblesEarned)),
	)

	events.Emit(ctx, s.emitter, log, events.TypeTopicPurchased, userID, events.TopicPurchased{
		TopicID:       result.Topic.ID,
		TransactionID: result.Transaction.ID,
		Spent:         result.Transaction.Spent,
		Prestige:      result.Transaction.Prestige,
		DiscountGem:   result.Topic.DiscountGem,
	})
	s.emitNobles(ctx, log, userID, result.NoblesEarned)

	return result, nil
}

// NobleProgress implements Service.NobleProgress
func (s *economyServiceImpl) NobleProgress(ctx context.Context, userID uuid.UUID) (*NobleReport, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", userID.String()))
	now := s.now()

	var report *NobleReport
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		purchased, err := st.Topics.PurchasedDiscountGems(ctx, userID)
		if err != nil {
			return NewServiceError("noble_progress", "failed to load purchased topics", err)
		}
		discounts := econ.DiscountsFrom(purchased)

		// Only lock the wallet when there is something new to claim.
		var wallet *domain.Wallet
		var earned []domain.Noble
		for _, p := range econ.EvaluateNobles(s.catalog.Nobles, discounts, nil) {
			if !p.Completed {
				continue
			}
			if wallet == nil {
				if wallet, err = st.Wallets.GetForUpdate(ctx, userID); err != nil {
					return NewServiceError("noble_progress", "failed to lock wallet", err)
				}
			}
			ok, err := s.claim(ctx, st, wallet, p.Noble, now)
			if err != nil {
				return err
			}
			if ok {
				earned = append(earned, p.Noble)
			}
		}

		if len(earned) > 0 {
			wallet.UpdatedAt = now
			if err := st.Wallets.Save(ctx, wallet); err != nil {
				return NewServiceError("noble_progress", "failed to save wallet", err)
			}
		}

		claims, err := st.NobleClaims.ListClaimed(ctx, userID)
		if err != nil {
			return NewServiceError("noble_progress", "failed to load claims", err)
		}
		claimed := make(map[string]bool, len(claims))
		for _, c := range claims {
			claimed[c.NobleID] = true
		}

		prestige := 0
		if wallet != nil {
			prestige = wallet.Prestige
		} else {
			current, err := st.Wallets.Get(ctx, userID)
			if err != nil {
				return NewServiceError("noble_progress", "failed to load wallet", err)
			}
			prestige = current.Prestige
		}

		report = &NobleReport{
			Discounts:    discounts,
			Nobles:       econ.EvaluateNobles(s.catalog.Nobles, discounts, claimed),
			NoblesEarned: earned,
			Prestige:     prestige,
		}
		return nil
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to evaluate nobles", slog.String("error", err.Error()))
		return nil, err
	}

	s.emitNobles(ctx, log, userID, report.NoblesEarned)
	return report, nil
}

// claimCompleted claims every noble completed by discounts that the user
// does not hold yet, crediting the wallet in memory. The caller saves it.
func (s *economyServiceImpl) claimCompleted(
	ctx context.Context,
	st store.Stores,
	wallet *domain.Wallet,
	discounts domain.Gems,
	now time.Time,
) ([]domain.Noble, error) {
	var earned []domain.Noble
	for _, n := range s.catalog.Nobles {
		if !econ.EvaluateNoble(n, discounts).Completed {
			continue
		}
		ok, err := s.claim(ctx, st, wallet, n, now)
		if err != nil {
			return nil, err
		}
		if ok {
			earned = append(earned, n)
		}
	}
	return earned, nil
}

// claim records a noble claim and, if it is new, credits its prestige and
// appends the ledger entry.
func (s *economyServiceImpl) claim(
	ctx context.Context,
	st store.Stores,
	wallet *domain.Wallet,
	n domain.Noble,
	now time.Time,
) (bool, error) {
	created, err := st.NobleClaims.Claim(ctx, wallet.UserID, n.ID)
	if err != nil {
		return false, NewServiceError("claim_noble", fmt.Sprintf("failed to claim noble %q", n.ID), err)
	}
	if !created {
		return false, nil
	}
	wallet.Prestige += n.Prestige
	txn := domain.NewNobleTransaction(wallet.UserID, n.ID, n.Prestige, now)
	if err := st.Transactions.Append(ctx, txn); err != nil {
		return false, NewServiceError("claim_noble", "failed to record transaction", err)
	}
	return true, nil
}

func (s *economyServiceImpl) emitNobles(ctx context.Context, log *slog.Logger, userID uuid.UUID, nobles []domain.Noble) {
	for _, n := range nobles {
		log.InfoContext(ctx, "noble claimed", slog.String("noble_id", n.ID), slog.Int("prestige", n.Prestige))
		events.Emit(ctx, s.emitter, log, events.TypeNobleClaimed, userID, events.NobleClaimed{
			NobleID:  n.ID,
			Prestige: n.Prestige,
		})
	}
}

// topicError converts a store lookup failure into the service's error.
func topicError(operation string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrTopicNotFound
	}
	return NewServiceError(operation, "failed to load topic", err)
}

func isBusinessError(err error) bool {
	return errors.Is(err, ErrTopicNotFound) ||
		errors.Is(err, ErrAlreadyPurchased) ||
		errors.Is(err, ErrNotEligible) ||
		errors.Is(err, ErrInsufficientFunds)
}
