package api

// StudySessionRequest is the body of POST /api/topics/{id}/study.
type StudySessionRequest struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}

// MoveTopicRequest is the body of PUT /api/topics/{id}/stage.
type MoveTopicRequest struct {
	Stage string `json:"stage" validate:"required,oneof=backlog today learning reviewing mastered"`
}
