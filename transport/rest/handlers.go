package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
)

type enterRequest struct {
	Nickname string `json:"nickname" validate:"max=64"`
	Team     string `json:"team" validate:"max=32"`
	Role     string `json:"role" validate:"max=32"`
}

type attendanceRequest struct {
	Nickname string `json:"nickname" validate:"required,max=64"`
	Session  string `json:"session" validate:"max=128"`
}

type pollRequest struct {
	Question string   `json:"question" validate:"required,max=256"`
	Options  []string `json:"options" validate:"min=2,dive,max=128"`
}

type voteRequest struct {
	Option   *int   `json:"option" validate:"required,min=0"`
	Nickname string `json:"nickname" validate:"required,max=64"`
}

type chatbotRequest struct {
	Question string `json:"question" validate:"required,max=1000"`
}

type chatbotResponse struct {
	Answer string `json:"answer"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *Server) enter(w http.ResponseWriter, r *http.Request) {
	var req enterRequest
	if !that.decode(w, r, &req) {
		return
	}

	user, err := that.classroom.Enter(r.Context(), req.Nickname, req.Team, req.Role)
	if err != nil {
		that.fail(w, "enter", err)
		return
	}

	that.respond(w, http.StatusCreated, user)
}

func (that *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := that.classroom.Leaderboard(r.Context())
	if err != nil {
		that.fail(w, "leaderboard", err)
		return
	}

	that.respond(w, http.StatusOK, board)
}

func (that *Server) markAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !that.decode(w, r, &req) {
		return
	}

	attendance, err := that.classroom.MarkAttendance(r.Context(), req.Nickname, req.Session)
	if err != nil {
		that.fail(w, "markAttendance", err)
		return
	}

	that.respond(w, http.StatusCreated, attendance)
}

func (that *Server) exportAttendance(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := that.classroom.ExportAttendance(r.Context(), &buf); err != nil {
		that.fail(w, "exportAttendance", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		that.logger.Error("failed to write csv", "error", err)
	}
}

func (that *Server) attendanceQR(w http.ResponseWriter, _ *http.Request) {
	png, err := that.classroom.AttendanceQR()
	if err != nil {
		that.fail(w, "attendanceQR", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(png); err != nil {
		that.logger.Error("failed to write qr code", "error", err)
	}
}

func (that *Server) listPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := that.classroom.Polls(r.Context())
	if err != nil {
		that.fail(w, "listPolls", err)
		return
	}

	that.respond(w, http.StatusOK, polls)
}

func (that *Server) createPoll(w http.ResponseWriter, r *http.Request) {
	var req pollRequest
	if !that.decode(w, r, &req) {
		return
	}

	poll, err := that.classroom.CreatePoll(r.Context(), req.Question, req.Options)
	if err != nil {
		that.fail(w, "createPoll", err)
		return
	}

	that.respond(w, http.StatusCreated, poll)
}

func (that *Server) vote(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		that.fail(w, "vote", fmt.Errorf("%w: bad poll id", apperror.ErrInvalidPayload))
		return
	}

	var req voteRequest
	if !that.decode(w, r, &req) {
		return
	}

	poll, err := that.classroom.Vote(r.Context(), pollID, *req.Option, req.Nickname)
	if err != nil {
		that.fail(w, "vote", err)
		return
	}

	that.respond(w, http.StatusOK, poll)
}

func (that *Server) recentMemes(w http.ResponseWriter, r *http.Request) {
	uploads, err := that.classroom.RecentMemes(r.Context())
	if err != nil {
		that.fail(w, "recentMemes", err)
		return
	}

	that.respond(w, http.StatusOK, uploads)
}

func (that *Server) uploadMeme(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		that.fail(w, "uploadMeme", fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err))
		return
	}
	defer file.Close()

	upload, err := that.classroom.UploadMeme(r.Context(), r.FormValue("nickname"), header.Filename, file)
	if err != nil {
		that.fail(w, "uploadMeme", err)
		return
	}

	that.respond(w, http.StatusCreated, upload)
}

func (that *Server) serveMeme(w http.ResponseWriter, r *http.Request) {
	path, err := that.classroom.MemePath(chi.URLParam(r, "filename"))
	if err != nil {
		that.fail(w, "serveMeme", err)
		return
	}

	http.ServeFile(w, r, path)
}

func (that *Server) chatbot(w http.ResponseWriter, r *http.Request) {
	var req chatbotRequest
	if !that.decode(w, r, &req) {
		return
	}

	that.respond(w, http.StatusOK, chatbotResponse{Answer: that.bot.Answer(req.Question)})
}

func (that *Server) rooms(w http.ResponseWriter, _ *http.Request) {
	that.respond(w, http.StatusOK, that.classroom.Rooms())
}

// decode reads and validates a JSON body. It writes the error response itself and reports false on failure.
func (that *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		that.fail(w, "decode", fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err))
		return false
	}

	if err := that.validate.Struct(dst); err != nil {
		that.fail(w, "decode", fmt.Errorf("%w: %w", apperror.ErrInvalidPayload, err))
		return false
	}

	return true
}

func (that *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *Server) fail(w http.ResponseWriter, method string, err error) {
	log := that.logger.With("method", method)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrInvalidPayload),
		errors.Is(err, apperror.ErrInvalidPoll),
		errors.Is(err, apperror.ErrInvalidOption):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
		that.respond(w, status, errorResponse{Error: "Internal Server Error"})
		return
	}

	log.Debug("request rejected", "error", err)
	that.respond(w, status, errorResponse{Error: err.Error()})
}
