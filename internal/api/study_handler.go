package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/studyquest/internal/api/shared"
	"github.com/phrazzld/studyquest/internal/domain"
	"github.com/phrazzld/studyquest/internal/platform/logger"
	"github.com/phrazzld/studyquest/internal/service/study"
)

// StudyHandler serves study sessions and board moves.
type StudyHandler struct {
	studyService study.Service
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService study.Service, logger *slog.Logger) *StudyHandler {
	if studyService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("studyService cannot be nil for StudyHandler")
	}
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// CompleteSession handles POST /api/topics/{id}/study.
func (h *StudyHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req StudySessionRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	result, err := h.studyService.CompleteSession(r.Context(), userID, topicID, req.Score)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record study session")
		return
	}

	log.Debug("study session recorded",
		slog.String("topic_id", topicID.String()),
		slog.Int("score", req.Score),
		slog.Int("interval_days", result.IntervalDays))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// MoveTopic handles PUT /api/topics/{id}/stage.
func (h *StudyHandler) MoveTopic(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, topicID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req MoveTopicRequest
	if !decodeAndValidate(w, r, &req, log) {
		return
	}

	stage, err := domain.ParseStage(req.Stage)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	topic, err := h.studyService.MoveTopic(r.Context(), userID, topicID, stage)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to move topic")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, topic)
}
