package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/service/economy"
)

// EconomyHandler serves wallet, pricing, purchase and noble requests.
type EconomyHandler struct {
	economyService economy.Service
	logger         *slog.Logger
}

// NewEconomyHandler creates a new EconomyHandler.
func NewEconomyHandler(economyService economy.Service, logger *slog.Logger) *EconomyHandler {
	if economyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("economyService cannot be nil for EconomyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for EconomyHandler")
	}

	return &EconomyHandler{
		economyService: economyService,
		logger:         logger.With(slog.String("component", "economy_handler")),
	}
}

// GetWallet handles GET /api/wallet.
func (h *EconomyHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	view, err := h.economyService.Wallet(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load wallet")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// GetCost handles GET /api/topics/{id}/cost.
// The quote includes whether the current balance covers it.
func (h *EconomyHandler) GetCost(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	quote, err := h.economyService.EffectiveCost(r.Context(), userID, topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to price topic")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, quote)
}

// Purchase handles POST /api/topics/{id}/purchase.
func (h *EconomyHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	result, err := h.economyService.Purchase(r.Context(), userID, topicID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to purchase topic")
		return
	}

	log.Info("topic purchased",
		slog.String("user_id", userID.String()),
		slog.String("topic_id", topicID.String()),
		slog.Int("nobles_earned", len(result.NoblesEarned)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetNobles handles GET /api/nobles. Completed nobles are claimed as a
// side effect.
func (h *EconomyHandler) GetNobles(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	report, err := h.economyService.NobleProgress(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to evaluate nobles")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
