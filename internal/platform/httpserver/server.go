package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	alarmservice "newsroom/contexts/news-engagement/alarm-service"
	alarmerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
	alarmhttp "newsroom/contexts/news-engagement/alarm-service/transport/http"
	pollengine "newsroom/contexts/news-engagement/poll-engine"
	pollerrors "newsroom/contexts/news-engagement/poll-engine/domain/errors"
	pollhttp "newsroom/contexts/news-engagement/poll-engine/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "newsroom/internal/platform/httpserver/docs"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	polls  pollengine.Module
	alarms alarmservice.Module
}

func New(
	pollModule pollengine.Module,
	alarmModule alarmservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		polls:  pollModule,
		alarms: alarmModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /polls", s.handleCreatePoll)
	s.mux.HandleFunc("GET /polls/{poll_id}", s.handleGetPoll)
	s.mux.HandleFunc("POST /polls/{poll_id}/schedule", s.handleSchedulePoll)
	s.mux.HandleFunc("POST /polls/{poll_id}/vote", s.handleCastBallot)
	s.mux.HandleFunc("GET /polls/{poll_id}/stats", s.handlePollStatistics)

	s.mux.HandleFunc("GET /users/me/alarms", s.handleAlarmFeed)
	s.mux.HandleFunc("PATCH /users/me/alarms/{user_alarm_id}", s.handleMarkAlarmChecked)
}

func (s *Server) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get("X-Admin-Id")
	if adminID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req pollhttp.CreatePollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.polls.Handler.CreatePollHandler(r.Context(), adminID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("poll_id")
	resp, err := s.polls.Handler.GetPollHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSchedulePoll(w http.ResponseWriter, r *http.Request) {
	adminID := r.Header.Get("X-Admin-Id")
	if adminID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	pollID := r.PathValue("poll_id")
	resp, err := s.polls.Handler.SchedulePollHandler(r.Context(), pollID, adminID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writePollError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req pollhttp.CastBallotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePollError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	pollID := r.PathValue("poll_id")
	resp, err := s.polls.Handler.CastBallotHandler(r.Context(), userID, pollID, req)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePollStatistics(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("poll_id")
	resp, err := s.polls.Handler.PollStatisticsHandler(r.Context(), pollID)
	if err != nil {
		writePollDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAlarmFeed(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeAlarmError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.alarms.Handler.AlarmFeedHandler(r.Context(), userID)
	if err != nil {
		writeAlarmDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkAlarmChecked(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeAlarmError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	userAlarmID := r.PathValue("user_alarm_id")
	resp, err := s.alarms.Handler.MarkAlarmCheckedHandler(r.Context(), userID, userAlarmID)
	if err != nil {
		writeAlarmDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePollDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pollerrors.ErrInvalidPollInput):
		writePollError(w, http.StatusBadRequest, "invalid_poll_input", err.Error())
	case errors.Is(err, pollerrors.ErrChoiceCountOutOfRange):
		writePollError(w, http.StatusBadRequest, "choice_count_out_of_range", err.Error())
	case errors.Is(err, pollerrors.ErrAdminRequired):
		writePollError(w, http.StatusForbidden, "admin_required", err.Error())
	case errors.Is(err, pollerrors.ErrPollNotPublished):
		writePollError(w, http.StatusForbidden, "poll_not_published", err.Error())
	case errors.Is(err, pollerrors.ErrNotInVotingPeriod):
		writePollError(w, http.StatusForbidden, "not_in_voting_period", err.Error())
	case errors.Is(err, pollerrors.ErrPollNotFound):
		writePollError(w, http.StatusNotFound, "poll_not_found", err.Error())
	case errors.Is(err, pollerrors.ErrOptionNotFound):
		writePollError(w, http.StatusNotFound, "option_not_found", err.Error())
	case errors.Is(err, pollerrors.ErrAlreadyVoted):
		writePollError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, pollerrors.ErrInvalidStateChange):
		writePollError(w, http.StatusConflict, "invalid_state_change", err.Error())
	case errors.Is(err, pollerrors.ErrPublishedPollExists):
		writePollError(w, http.StatusConflict, "published_poll_exists", err.Error())
	case errors.Is(err, pollerrors.ErrConflict):
		writePollError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writePollError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAlarmDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, alarmerrors.ErrInvalidAlarmInput):
		writeAlarmError(w, http.StatusBadRequest, "invalid_alarm_input", err.Error())
	case errors.Is(err, alarmerrors.ErrNotAlarmOwner):
		writeAlarmError(w, http.StatusForbidden, "not_alarm_owner", err.Error())
	case errors.Is(err, alarmerrors.ErrUserAlarmNotFound),
		errors.Is(err, alarmerrors.ErrAlarmNotFound):
		writeAlarmError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, alarmerrors.ErrConflict):
		writeAlarmError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeAlarmError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePollError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pollhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeAlarmError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, alarmhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
