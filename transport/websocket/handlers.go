package websocket

import (
	"context"

	"github.com/rocketscienceinc/classhub-backend/internal/event"
	"github.com/rocketscienceinc/classhub-backend/internal/usecase"
)

// handleEvent decodes the payload into its event and dispatches it. Refused
// events are answered to the sender only.
func (that *Server) handleEvent(ctx context.Context, sess *session, message *Message) error {
	_, err := that.decodeAndDispatch(ctx, sess, message)
	return err
}

func (that *Server) handleJoin(ctx context.Context, sess *session, message *Message) error {
	evt, err := that.decodeAndDispatch(ctx, sess, message)
	if join, ok := evt.(event.Join); ok {
		sess.rooms[join.Room] = join.Nickname
	}

	return err
}

func (that *Server) handleLeave(ctx context.Context, sess *session, message *Message) error {
	evt, err := that.decodeAndDispatch(ctx, sess, message)
	if leave, ok := evt.(event.Leave); ok {
		delete(sess.rooms, leave.Room)
	}

	return err
}

// decodeAndDispatch returns the decoded event even when dispatching failed.
func (that *Server) decodeAndDispatch(ctx context.Context, sess *session, message *Message) (event.Event, error) {
	evt, err := that.decoder.Decode(message.Action, message.Payload)
	if err != nil {
		that.reject(ctx, sess, message.Action, err)
		return nil, nil
	}

	if err = that.dispatcher.Dispatch(ctx, sess.clientID, evt); err != nil {
		if usecase.IsRejection(err) {
			that.reject(ctx, sess, message.Action, err)
			return evt, nil
		}

		return evt, err
	}

	return evt, nil
}

// leaveAll - leaves every chat room the connection joined.
func (that *Server) leaveAll(ctx context.Context, sess *session) {
	log := that.logger.With("method", "leaveAll", "clientID", sess.clientID)

	for roomKey, nickname := range sess.rooms {
		if err := that.dispatcher.Dispatch(ctx, sess.clientID, event.Leave{Room: roomKey, Nickname: nickname}); err != nil {
			log.Error("failed to leave room", "room", roomKey, "error", err)
		}
	}

	clear(sess.rooms)
}

func (that *Server) reject(ctx context.Context, sess *session, action string, cause error) {
	payload := usecase.RejectedPayload{Action: action, Error: cause.Error()}

	if err := that.hub.SendTo(ctx, sess.clientID, usecase.ActionRejected, payload); err != nil {
		that.logger.Error("failed to send rejection", "clientID", sess.clientID, "error", err)
	}
}
