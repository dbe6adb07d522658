package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rocketscienceinc/classhub-backend/internal/event"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 5 * time.Second
)

type uDispatcher interface {
	Dispatch(ctx context.Context, clientID string, evt event.Event) error
}

type clientHub interface {
	Register(clientID string) <-chan []byte
	Unregister(clientID string)
	SendTo(ctx context.Context, clientID, action string, payload any) error
}

type Server struct {
	logger     *slog.Logger
	dispatcher uDispatcher
	hub        clientHub
	decoder    *event.Decoder

	handlers map[string]func(ctx context.Context, sess *session, message *Message) error
}

func New(logger *slog.Logger, dispatcher uDispatcher, hub clientHub) *Server {
	server := &Server{
		logger:     logger.With("component", "websocket"),
		dispatcher: dispatcher,
		hub:        hub,
		decoder:    event.NewDecoder(),

		handlers: make(map[string]func(context.Context, *session, *Message) error),
	}

	server.handlers[event.ActionJoin] = server.handleJoin
	server.handlers[event.ActionLeave] = server.handleLeave
	for _, action := range []string{
		event.ActionSendMessage,
		event.ActionSendMsg,
		event.ActionReaction,
		event.ActionRandomTeams,
		event.ActionRPSJoin,
		event.ActionRPSMove,
		event.ActionTTTJoin,
		event.ActionTTTMove,
	} {
		server.handlers[action] = server.handleEvent
	}

	return server
}

func (that *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/ws", that.serveWebSocket)

	return router
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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

// serveWebSocket - upgrades the connection and runs it until the client goes away.
func (that *Server) serveWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWebSocket")

	conn, err := websocket.Accept(writer, req, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Error("failed to accept websocket", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := req.Context()
	sess := newSession(uuid.NewString())
	log = log.With("clientID", sess.clientID)

	outbox := that.hub.Register(sess.clientID)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		that.writeLoop(ctx, conn, outbox)
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, conn, sess); err != nil {
		log.Info("connection closed", "reason", err)
	}

	that.leaveAll(context.WithoutCancel(ctx), sess)
	that.hub.Unregister(sess.clientID)
	<-writerDone

	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, conn *websocket.Conn, sess *session) error {
	log := that.logger.With("method", "handleMessages", "clientID", sess.clientID)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.reject(ctx, sess, "", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		if err = handler(ctx, sess, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) writeLoop(ctx context.Context, conn *websocket.Conn, outbox <-chan []byte) {
	for frame := range outbox {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := conn.Write(writeCtx, websocket.MessageText, frame)
		cancel()

		if err != nil {
			that.logger.Debug("failed to write frame", "error", err)
			_ = conn.CloseNow()
			// keep draining until the hub closes the outbox
			for range outbox {
			}
			return
		}
	}
}
