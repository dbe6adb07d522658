package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rocketscienceinc/classhub-backend/internal/apperror"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/internal/room"
	"github.com/samber/lo"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultAttendancePoints = 5
	DefaultVotePoints       = 1
	RecentUploadsLimit      = 10

	qrSize     = 320
	sniffBytes = 512
)

var attendanceHeader = []string{"nickname", "session_name", "timestamp"}

type userRepo interface {
	Save(ctx context.Context, user *entity.User) error
	Rank(ctx context.Context) ([]entity.User, error)
	TeamTotals(ctx context.Context) (map[string]int, error)
}

type attendanceRepo interface {
	Mark(ctx context.Context, attendance *entity.Attendance, points int) error
	List(ctx context.Context) ([]entity.Attendance, error)
}

type pollRepo interface {
	Create(ctx context.Context, poll *entity.Poll) error
	List(ctx context.Context) ([]entity.Poll, error)
	Vote(ctx context.Context, id int64, option int, nickname string, points int) (*entity.Poll, error)
}

type uploadRepo interface {
	Save(ctx context.Context, upload *entity.Upload) error
	Recent(ctx context.Context, limit int) ([]entity.Upload, error)
}

type globalPublisher interface {
	PublishAll(ctx context.Context, action string, payload any) error
}

type ClassroomConfig struct {
	MemeDir          string
	PublicURL        string
	AttendancePoints int
	VotePoints       int
}

type Leaderboard struct {
	Users []entity.User  `json:"users"`
	Teams map[string]int `json:"teams"`
}

// Classroom is the request/response side of the app: users, attendance,
// polls, memes and the live rooms listing.
type Classroom struct {
	logger *slog.Logger
	conf   ClassroomConfig

	userRepo       userRepo
	attendanceRepo attendanceRepo
	pollRepo       pollRepo
	uploadRepo     uploadRepo
	publisher      globalPublisher
	registry       *room.Registry

	now func() time.Time
}

func NewClassroom(
	logger *slog.Logger,
	conf ClassroomConfig,
	userRepo userRepo,
	attendanceRepo attendanceRepo,
	pollRepo pollRepo,
	uploadRepo uploadRepo,
	publisher globalPublisher,
	registry *room.Registry,
) *Classroom {
	return &Classroom{
		logger: logger.With("component", "classroom"),
		conf:   conf,

		userRepo:       userRepo,
		attendanceRepo: attendanceRepo,
		pollRepo:       pollRepo,
		uploadRepo:     uploadRepo,
		publisher:      publisher,
		registry:       registry,

		now: time.Now,
	}
}

// Enter registers a user. Entering twice with the same nickname is fine.
func (that *Classroom) Enter(ctx context.Context, nickname, team, role string) (*entity.User, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = "User" + strconv.Itoa(100+rand.IntN(900)) //nolint: gosec // display name only
	}

	user := &entity.User{
		Nickname: nickname,
		Team:     strings.ToLower(orDefault(team, entity.DefaultTeam)),
		Role:     strings.ToLower(orDefault(role, entity.DefaultRole)),
		JoinedAt: that.timestamp(),
	}

	if err := that.userRepo.Save(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	return user, nil
}

func (that *Classroom) Leaderboard(ctx context.Context) (*Leaderboard, error) {
	users, err := that.userRepo.Rank(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rank users: %w", err)
	}

	teams, err := that.userRepo.TeamTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum teams: %w", err)
	}

	return &Leaderboard{Users: users, Teams: teams}, nil
}

func (that *Classroom) MarkAttendance(ctx context.Context, nickname, session string) (*entity.Attendance, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", apperror.ErrInvalidPayload)
	}

	attendance := &entity.Attendance{
		Nickname:  nickname,
		Session:   orDefault(session, entity.DefaultSession),
		Timestamp: that.timestamp(),
	}

	if err := that.attendanceRepo.Mark(ctx, attendance, that.conf.AttendancePoints); err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}

	that.announce(ctx, ActionAttendanceMarked, AttendancePayload{
		Nickname: attendance.Nickname,
		Session:  attendance.Session,
		Ts:       attendance.Timestamp,
	})

	return attendance, nil
}

// ExportAttendance writes every attendance record as CSV, newest first.
func (that *Classroom) ExportAttendance(ctx context.Context, writer io.Writer) error {
	records, err := that.attendanceRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	csvWriter := csv.NewWriter(writer)

	rows := lo.Map(records, func(item entity.Attendance, _ int) []string {
		return []string{item.Nickname, item.Session, item.Timestamp}
	})

	if err = csvWriter.WriteAll(append([][]string{attendanceHeader}, rows...)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}

	return nil
}

// AttendanceQR renders a PNG QR code pointing students to the attendance form.
func (that *Classroom) AttendanceQR() ([]byte, error) {
	url := strings.TrimRight(that.conf.PublicURL, "/") + "/attendance"

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return png, nil
}

func (that *Classroom) Polls(ctx context.Context) ([]entity.Poll, error) {
	polls, err := that.pollRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}

	return polls, nil
}

func (that *Classroom) CreatePoll(ctx context.Context, question string, options []string) (*entity.Poll, error) {
	question = strings.TrimSpace(question)
	options = lo.FilterMap(options, func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})

	if question == "" || len(options) < 2 {
		return nil, apperror.ErrInvalidPoll
	}

	poll := entity.NewPoll(question, options)
	if err := that.pollRepo.Create(ctx, poll); err != nil {
		return nil, fmt.Errorf("failed to create poll: %w", err)
	}

	that.announce(ctx, ActionPollCreated, PollCreatedPayload{
		ID:       poll.ID,
		Question: poll.Question,
		Options:  poll.Options,
	})

	return poll, nil
}

func (that *Classroom) Vote(ctx context.Context, pollID int64, option int, nickname string) (*entity.Poll, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, fmt.Errorf("%w: nickname is required", apperror.ErrInvalidPayload)
	}

	poll, err := that.pollRepo.Vote(ctx, pollID, option, nickname, that.conf.VotePoints)
	if err != nil {
		return nil, fmt.Errorf("failed to vote: %w", err)
	}

	that.announce(ctx, ActionPollUpdated, PollUpdatedPayload{PollID: poll.ID, Votes: poll.Votes})

	return poll, nil
}

// UploadMeme stores content under the meme directory. The content type is
// sniffed from the first bytes, not taken from the client.
func (that *Classroom) UploadMeme(ctx context.Context, nickname, filename string, content io.Reader) (*entity.Upload, error) {
	log := that.logger.With("method", "UploadMeme")

	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return nil, fmt.Errorf("%w: file name is required", apperror.ErrInvalidPayload)
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	if err = os.MkdirAll(that.conf.MemeDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create meme dir: %w", err)
	}

	file, err := os.Create(filepath.Join(that.conf.MemeDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create meme file: %w", err)
	}
	defer file.Close()

	if _, err = io.Copy(file, io.MultiReader(bytes.NewReader(head), content)); err != nil {
		return nil, fmt.Errorf("failed to write meme file: %w", err)
	}

	upload := &entity.Upload{
		Filename:    name,
		Uploader:    orDefault(nickname, "anon"),
		ContentType: mimetype.Detect(head).String(),
		Timestamp:   that.timestamp(),
	}

	if err = that.uploadRepo.Save(ctx, upload); err != nil {
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}

	log.Info("meme uploaded", "filename", upload.Filename, "contentType", upload.ContentType)

	that.announce(ctx, ActionNewUpload, upload)

	return upload, nil
}

func (that *Classroom) RecentMemes(ctx context.Context) ([]entity.Upload, error) {
	uploads, err := that.uploadRepo.Recent(ctx, RecentUploadsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	return uploads, nil
}

// MemePath resolves a stored meme by name. Only files directly inside the meme dir are served.
func (that *Classroom) MemePath(filename string) (string, error) {
	name := filepath.Base(filename)
	path := filepath.Join(that.conf.MemeDir, name)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", apperror.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat meme: %w", err)
	}

	return path, nil
}

func (that *Classroom) Rooms() []room.Info {
	return that.registry.Snapshot()
}

// announce is best effort: the stored change stands even if nobody hears about it.
func (that *Classroom) announce(ctx context.Context, action string, payload any) {
	if err := that.publisher.PublishAll(ctx, action, payload); err != nil {
		that.logger.Error("failed to publish", "action", action, "error", err)
	}
}

func (that *Classroom) timestamp() string {
	return that.now().Format(entity.TimeLayout)
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value == "" {
		return fallback
	}

	return value
}
