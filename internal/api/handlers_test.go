package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/domain"
	econ "github.com/phrazzld/studyquest/internal/domain/economy"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/service/economy"
	"github.com/phrazzld/studyquest/internal/service/study"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// newTestRouter mounts the handlers the way the server does, with userID
// standing in for the auth middleware. A nil userID leaves requests
// unauthenticated.
func newTestRouter(t *testing.T, econSvc economy.Service, studySvc study.Service, userID uuid.UUID) http.Handler {
	t.Helper()
	log, _ := logger.GetTestLogger(t)

	if econSvc == nil {
		econSvc = &mockEconomyService{}
	}
	if studySvc == nil {
		studySvc = &mockStudyService{}
	}
	eh := NewEconomyHandler(econSvc, log)
	sh := NewStudyHandler(studySvc, log)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if userID != uuid.Nil {
				ctx = shared.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/wallet", eh.GetWallet)
	r.Get("/api/nobles", eh.GetNobles)
	r.Get("/api/topics/{id}/cost", eh.GetCost)
	r.Post("/api/topics/{id}/purchase", eh.Purchase)
	r.Post("/api/topics/{id}/study", sh.CompleteSession)
	r.Put("/api/topics/{id}/stage", sh.MoveTopic)
	return r
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestGetWallet(t *testing.T) {
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		svc := &mockEconomyService{
			WalletFn: func(ctx context.Context, id uuid.UUID) (*economy.WalletView, error) {
				assert.Equal(t, userID, id)
				return &economy.WalletView{
					Wallet:    &domain.Wallet{UserID: id, Balance: domain.Gems{Ruby: 3}, Prestige: 2},
					Discounts: domain.Gems{Emerald: 1},
				}, nil
			},
		}
		rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodGet, "/api/wallet", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var view economy.WalletView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
		assert.Equal(t, 3, view.Wallet.Balance.Ruby)
		assert.Equal(t, 1, view.Discounts.Emerald)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := doRequest(newTestRouter(t, nil, nil, uuid.Nil), http.MethodGet, "/api/wallet", "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetCost(t *testing.T) {
	userID := uuid.New()
	topicID := uuid.New()

	t.Run("quote", func(t *testing.T) {
		svc := &mockEconomyService{
			EffectiveCostFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.CostQuote, error) {
				assert.Equal(t, topicID, tid)
				return &economy.CostQuote{
					TopicID: tid,
					Quote: econ.NewQuote(
						domain.Gems{Ruby: 2, Sapphire: 1, Emerald: 1},
						domain.Gems{Emerald: 1},
						domain.Gems{Ruby: 1},
					),
				}, nil
			},
		}
		rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodGet, "/api/topics/"+topicID.String()+"/cost", "")

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, topicID.String(), body["topic_id"])
		assert.Equal(t, false, body["affordable"])
		assert.Equal(t, []interface{}{"ruby", "sapphire"}, body["short"])
	})

	t.Run("invalid topic id", func(t *testing.T) {
		rr := doRequest(newTestRouter(t, nil, nil, userID), http.MethodGet, "/api/topics/not-a-uuid/cost", "")

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid id: has invalid format", decodeError(t, rr)["error"])
	})

	t.Run("not found", func(t *testing.T) {
		svc := &mockEconomyService{
			EffectiveCostFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.CostQuote, error) {
				return nil, economy.ErrTopicNotFound
			},
		}
		rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodGet, "/api/topics/"+topicID.String()+"/cost", "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestPurchaseHandler(t *testing.T) {
	userID := uuid.New()
	topicID := uuid.New()
	path := "/api/topics/" + topicID.String() + "/purchase"

	t.Run("success", func(t *testing.T) {
		svc := &mockEconomyService{
			PurchaseFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.PurchaseResult, error) {
				return &economy.PurchaseResult{
					Topic:  &domain.Topic{ID: tid, Purchased: true, Stage: domain.StageMastered},
					Wallet: &domain.Wallet{UserID: uid, Prestige: 1},
				}, nil
			},
		}
		rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodPost, path, "")

		require.Equal(t, http.StatusOK, rr.Code)
		var result economy.PurchaseResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.True(t, result.Topic.Purchased)
		assert.Equal(t, 1, result.Wallet.Prestige)
	})

	t.Run("insufficient funds carries the short list", func(t *testing.T) {
		svc := &mockEconomyService{
			PurchaseFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.PurchaseResult, error) {
				return nil, &economy.InsufficientFundsError{
					Short:   []domain.Gem{domain.GemRuby, domain.GemDiamond},
					Cost:    domain.Gems{Ruby: 2, Diamond: 1},
					Balance: domain.Gems{Ruby: 1},
				}
			},
		}
		rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodPost, path, "")

		require.Equal(t, http.StatusPaymentRequired, rr.Code)
		body := decodeError(t, rr)
		assert.Equal(t, "Insufficient gems", body["error"])
		details, ok := body["details"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, []interface{}{"ruby", "diamond"}, details["short"])
	})

	errorCases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"already purchased", economy.ErrAlreadyPurchased, http.StatusConflict, "Topic already purchased"},
		{"not mastered", economy.ErrNotEligible, http.StatusUnprocessableEntity, "Only mastered topics can be purchased"},
		{"not found", economy.ErrTopicNotFound, http.StatusNotFound, "Topic not found"},
		{
			"wrapped internal error",
			economy.NewServiceError("purchase", "transaction failed", assert.AnError),
			http.StatusInternalServerError,
			"Failed to purchase topic",
		},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockEconomyService{
				PurchaseFn: func(ctx context.Context, uid, tid uuid.UUID) (*economy.PurchaseResult, error) {
					return nil, tc.err
				},
			}
			rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodPost, path, "")

			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.message, decodeError(t, rr)["error"])
		})
	}
}

func TestGetNobles(t *testing.T) {
	userID := uuid.New()
	svc := &mockEconomyService{
		NobleProgressFn: func(ctx context.Context, uid uuid.UUID) (*economy.NobleReport, error) {
			return &economy.NobleReport{
				Discounts:    domain.Gems{Ruby: 3},
				NoblesEarned: []domain.Noble{{ID: "scholar", Name: "Scholar", Prestige: 3}},
				Prestige:     3,
			}, nil
		},
	}
	rr := doRequest(newTestRouter(t, svc, nil, userID), http.MethodGet, "/api/nobles", "")

	require.Equal(t, http.StatusOK, rr.Code)
	var report economy.NobleReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Len(t, report.NoblesEarned, 1)
	assert.Equal(t, "scholar", report.NoblesEarned[0].ID)
}

func TestCompleteSessionHandler(t *testing.T) {
	userID := uuid.New()
	topicID := uuid.New()
	path := "/api/topics/" + topicID.String() + "/study"

	t.Run("success", func(t *testing.T) {
		svc := &mockStudyService{}
		svc.On("CompleteSession", mock.Anything, userID, topicID, 3).Return(&study.SessionResult{
			Topic:        &domain.Topic{ID: topicID, Stage: domain.StageReviewing},
			IntervalDays: 4,
			Earned:       domain.Gems{Sapphire: 1},
		}, nil)

		rr := doRequest(newTestRouter(t, nil, svc, userID), http.MethodPost, path, `{"score":3}`)

		require.Equal(t, http.StatusOK, rr.Code)
		var result study.SessionResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, 4, result.IntervalDays)
		assert.Equal(t, domain.StageReviewing, result.Topic.Stage)
		svc.AssertExpectations(t)
	})

	badBodies := []struct {
		name    string
		body    string
		message string
	}{
		{"score too high", `{"score":6}`, "Invalid score: must be at most 5"},
		{"score missing", `{}`, "Invalid score: required field"},
		{"malformed json", `{"score":`, "Invalid request format"},
		{"unknown field", `{"score":3,"bonus":true}`, "Invalid request format"},
	}
	for _, tc := range badBodies {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockStudyService{}
			rr := doRequest(newTestRouter(t, nil, svc, userID), http.MethodPost, path, tc.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tc.message, decodeError(t, rr)["error"])
			svc.AssertNotCalled(t, "CompleteSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("mastered topic", func(t *testing.T) {
		svc := &mockStudyService{}
		svc.On("CompleteSession", mock.Anything, userID, topicID, 5).Return(nil, study.ErrNotStudyable)

		rr := doRequest(newTestRouter(t, nil, svc, userID), http.MethodPost, path, `{"score":5}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "Topic cannot be studied", decodeError(t, rr)["error"])
	})
}

func TestMoveTopicHandler(t *testing.T) {
	userID := uuid.New()
	topicID := uuid.New()
	path := "/api/topics/" + topicID.String() + "/stage"

	t.Run("success", func(t *testing.T) {
		svc := &mockStudyService{}
		svc.On("MoveTopic", mock.Anything, userID, topicID, domain.StageToday).
			Return(&domain.Topic{ID: topicID, Stage: domain.StageToday}, nil)

		rr := doRequest(newTestRouter(t, nil, svc, userID), http.MethodPut, path, `{"stage":"today"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		var topic domain.Topic
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &topic))
		assert.Equal(t, domain.StageToday, topic.Stage)
		svc.AssertExpectations(t)
	})

	t.Run("unknown stage", func(t *testing.T) {
		svc := &mockStudyService{}
		rr := doRequest(newTestRouter(t, nil, svc, userID), http.MethodPut, path, `{"stage":"archived"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "MoveTopic", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reviewing is not a board move", func(t *testing.T) {
		svc := &mockStudyService{}
		svc.On("MoveTopic", mock.Anything, userID, topicID, domain.StageReviewing).
			Return(nil, study.ErrStageNotAllowed)

		rr := doRequest(newTestRouter(t, nil, svc, userID), http.MethodPut, path, `{"stage":"reviewing"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "Stage change not allowed", decodeError(t, rr)["error"])
	})
}
