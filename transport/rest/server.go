package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/internal/room"
	"github.com/rocketscienceinc/classhub-backend/internal/service"
	"github.com/rocketscienceinc/classhub-backend/internal/usecase"
)

const (
	shutdownTimeout = 5 * time.Second
	maxUploadSize   = 10 << 20
)

type classroomUseCase interface {
	Enter(ctx context.Context, nickname, team, role string) (*entity.User, error)
	Leaderboard(ctx context.Context) (*usecase.Leaderboard, error)
	MarkAttendance(ctx context.Context, nickname, session string) (*entity.Attendance, error)
	ExportAttendance(ctx context.Context, writer io.Writer) error
	AttendanceQR() ([]byte, error)
	Polls(ctx context.Context) ([]entity.Poll, error)
	CreatePoll(ctx context.Context, question string, options []string) (*entity.Poll, error)
	Vote(ctx context.Context, pollID int64, option int, nickname string) (*entity.Poll, error)
	UploadMeme(ctx context.Context, nickname, filename string, content io.Reader) (*entity.Upload, error)
	RecentMemes(ctx context.Context) ([]entity.Upload, error)
	MemePath(filename string) (string, error)
	Rooms() []room.Info
}

type Server struct {
	logger    *slog.Logger
	classroom classroomUseCase
	bot       service.BotService
	validate  *validator.Validate
}

func New(logger *slog.Logger, classroom classroomUseCase, bot service.BotService) *Server {
	return &Server{
		logger:    logger.With("component", "rest"),
		classroom: classroom,
		bot:       bot,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (that *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/ping", PingHandler)

	router.Post("/users", that.enter)
	router.Get("/leaderboard", that.leaderboard)

	router.Route("/attendance", func(r chi.Router) {
		r.Post("/", that.markAttendance)
		r.Get("/export", that.exportAttendance)
		r.Get("/qr", that.attendanceQR)
	})

	router.Route("/polls", func(r chi.Router) {
		r.Get("/", that.listPolls)
		r.Post("/", that.createPoll)
		r.Post("/{id}/vote", that.vote)
	})

	router.Route("/memes", func(r chi.Router) {
		r.Get("/", that.recentMemes)
		r.Post("/", that.uploadMeme)
		r.Get("/{filename}", that.serveMeme)
	})

	router.Post("/chatbot", that.chatbot)
	router.Get("/rooms", that.rooms)

	return router
}

// Start - starts HTTP server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
