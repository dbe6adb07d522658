package rest

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/classhub-backend/internal/broadcast"
	"github.com/rocketscienceinc/classhub-backend/internal/entity"
	"github.com/rocketscienceinc/classhub-backend/internal/repository"
	"github.com/rocketscienceinc/classhub-backend/internal/room"
	"github.com/rocketscienceinc/classhub-backend/internal/service"
	"github.com/rocketscienceinc/classhub-backend/internal/usecase"
	"github.com/rocketscienceinc/classhub-backend/testing/suite"
)

func newTestServer(t *testing.T) (*httptest.Server, *room.Registry) {
	t.Helper()

	_, st := suite.NewSQLite(t)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := room.NewRegistry()

	classroom := usecase.NewClassroom(logger,
		usecase.ClassroomConfig{
			MemeDir:          filepath.Join(t.TempDir(), "memes"),
			PublicURL:        "http://classhub.local",
			AttendancePoints: usecase.DefaultAttendancePoints,
			VotePoints:       usecase.DefaultVotePoints,
		},
		repository.NewUserRepository(st.Connection),
		repository.NewAttendanceRepository(st.Connection),
		repository.NewPollRepository(st.Connection),
		repository.NewUploadRepository(st.Connection),
		broadcast.NewHub(logger, broadcast.DefaultClientBuffer),
		registry,
	)

	srv := httptest.NewServer(New(logger, classroom, service.NewBotService()).Handler())
	t.Cleanup(srv.Close)

	return srv, registry
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestServer_Ping(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := get(t, srv.URL+"/ping")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))
}

func TestServer_UsersAndAttendance(t *testing.T) {
	srv, _ := newTestServer(t)

	// Given: a registered user
	resp := postJSON(t, srv.URL+"/users", `{"nickname":"alice","team":"girls"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decodeBody[entity.User](t, resp)
	assert.Equal(t, "girls", user.Team)

	t.Run("Attendance awards points", func(t *testing.T) {
		// When: alice marks attendance
		resp = postJSON(t, srv.URL+"/attendance", `{"nickname":"alice","session":"Networks"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		// Then: the leaderboard shows her points and team total
		board := decodeBody[usecase.Leaderboard](t, get(t, srv.URL+"/leaderboard"))
		require.Len(t, board.Users, 1)
		assert.Equal(t, usecase.DefaultAttendancePoints, board.Users[0].Points)
		assert.Equal(t, map[string]int{"girls": usecase.DefaultAttendancePoints}, board.Teams)
	})

	t.Run("Attendance without nickname is a bad request", func(t *testing.T) {
		resp = postJSON(t, srv.URL+"/attendance", `{"session":"Networks"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Export is csv", func(t *testing.T) {
		resp = get(t, srv.URL+"/attendance/export")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "attendance.csv")

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(body)), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "nickname,session_name,timestamp", lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "alice,Networks,"))
	})

	t.Run("QR code is a png", func(t *testing.T) {
		resp = get(t, srv.URL+"/attendance/qr")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	})
}

func TestServer_Polls(t *testing.T) {
	srv, _ := newTestServer(t)

	// Given: a poll
	resp := postJSON(t, srv.URL+"/polls", `{"question":"Lunch?","options":["Pizza","Salad"]}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	poll := decodeBody[entity.Poll](t, resp)

	t.Run("Vote counts", func(t *testing.T) {
		resp = postJSON(t, srv.URL+"/polls/"+strconv.FormatInt(poll.ID, 10)+"/vote", `{"option":0,"nickname":"bob"}`)

		require.Equal(t, http.StatusOK, resp.StatusCode)
		updated := decodeBody[entity.Poll](t, resp)
		assert.Equal(t, map[string]int{"0": 1, "1": 0}, updated.Votes)

		polls := decodeBody[[]entity.Poll](t, get(t, srv.URL+"/polls"))
		require.Len(t, polls, 1)
		assert.Equal(t, updated.Votes, polls[0].Votes)
	})

	t.Run("Out of range option", func(t *testing.T) {
		resp = postJSON(t, srv.URL+"/polls/"+strconv.FormatInt(poll.ID, 10)+"/vote", `{"option":5,"nickname":"bob"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Unknown poll", func(t *testing.T) {
		resp = postJSON(t, srv.URL+"/polls/999/vote", `{"option":0,"nickname":"bob"}`)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Too few options", func(t *testing.T) {
		resp = postJSON(t, srv.URL+"/polls", `{"question":"Lunch?","options":["Pizza"]}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Memes(t *testing.T) {
	srv, _ := newTestServer(t)

	// Given: a multipart upload
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("nickname", "alice"))
	part, err := form.CreateFormFile("file", "joke.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("why did the packet cross the network"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	// When: it is posted
	resp, err := http.Post(srv.URL+"/memes", form.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	// Then: it is listed and served back
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	upload := decodeBody[entity.Upload](t, resp)
	assert.Equal(t, "alice", upload.Uploader)

	recent := decodeBody[[]entity.Upload](t, get(t, srv.URL+"/memes"))
	require.Len(t, recent, 1)
	assert.Equal(t, "joke.txt", recent[0].Filename)

	served := get(t, srv.URL+"/memes/joke.txt")
	require.Equal(t, http.StatusOK, served.StatusCode)
	content, err := io.ReadAll(served.Body)
	require.NoError(t, err)
	assert.Equal(t, "why did the packet cross the network", string(content))

	assert.Equal(t, http.StatusNotFound, get(t, srv.URL+"/memes/missing.png").StatusCode)
}

func TestServer_Chatbot(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/chatbot", `{"question":"when is the EXAM?"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	answer := decodeBody[chatbotResponse](t, resp)
	assert.Contains(t, answer.Answer, "Mid-term")

	assert.Equal(t, http.StatusBadRequest, postJSON(t, srv.URL+"/chatbot", `{}`).StatusCode)
}

func TestServer_Rooms(t *testing.T) {
	srv, registry := newTestServer(t)

	// Given: a live tic-tac-toe room with one member
	registry.GetOrCreate("r1", room.KindTicTacToe).Do(func(state *room.State) {
		state.Members["alice"] = struct{}{}
	})

	rooms := decodeBody[[]room.Info](t, get(t, srv.URL+"/rooms"))

	assert.Equal(t, []room.Info{{Kind: room.KindTicTacToe, Key: "r1", Members: []string{"alice"}}}, rooms)
}
