package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"lingua-quiz-service/internal/app"
	"lingua-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// Handler exposes the submission engine over HTTP. Authentication lives in
// the surrounding gateway; it injects the caller's identity as X-User-ID.
type Handler struct {
	service     *app.SubmissionService
	quizzes     app.QuizRepository
	submissions app.SubmissionRepository
	hub         *app.ProgressHub
	upgrader    websocket.Upgrader
}

func NewHandler(service *app.SubmissionService, quizzes app.QuizRepository, submissions app.SubmissionRepository, hub *app.ProgressHub) *Handler {
	return &Handler{
		service:     service,
		quizzes:     quizzes,
		submissions: submissions,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts all quiz routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quiz/submit", h.handleSubmit)
	mux.HandleFunc("GET /quiz/submissions", h.handleListSubmissions)
	mux.HandleFunc("GET /quiz/submission/{id}", h.handleGetSubmission)
	mux.HandleFunc("POST /quiz/feedback", h.handleFeedback)
	mux.HandleFunc("GET /ws", h.handleProgressWS)
}

type submitRequest struct {
	QuizID string        `json:"quizId"`
	Answer domain.Answer `json:"answer"`
}

type feedbackRequest struct {
	SubmissionID string `json:"submissionId"`
	Feedback     string `json:"feedback"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.quizzes.GetQuiz(r.Context(), req.QuizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := h.service.Evaluate(r.Context(), userID(r), req.QuizID, req.Answer, quiz.Key)
	if err != nil {
		writeError(w, statusForFault(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.submissions.ListByUser(r.Context(), userID(r), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error retrieving submissions")
		return
	}
	if result.Submissions == nil {
		result.Submissions = []domain.Submission{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	submission, err := h.submissions.GetSubmission(r.Context(), id)
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		writeError(w, http.StatusNotFound, "submission "+id+" not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error retrieving submission")
		return
	}
	writeJSON(w, http.StatusOK, submission)
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.submissions.SetFeedback(r.Context(), req.SubmissionID, req.Feedback)
	if errors.Is(err, domain.ErrSubmissionNotFound) {
		writeError(w, http.StatusNotFound, "submission "+req.SubmissionID+" not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error providing feedback")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Feedback provided successfully"})
}

// statusForFault maps engine faults to HTTP statuses: the two state-machine
// rejections are the caller's fault, everything else is a server-side failure.
func statusForFault(err error) int {
	if errors.Is(err, domain.ErrAlreadyCompleted) || errors.Is(err, domain.ErrAttemptsExceeded) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}
