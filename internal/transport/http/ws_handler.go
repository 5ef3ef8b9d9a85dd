package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/engine"
)

type WSHandler struct {
	service  *app.FormService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.FormService, log *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type questionPayload struct {
	QuestionID string           `json:"questionId"`
	Direction  domain.Direction `json:"direction"`
	Required   bool             `json:"required"`
	Authorized bool             `json:"authorized"`
}

type breakPayload struct {
	BreakID    string           `json:"breakId"`
	AfterOrder int              `json:"afterOrder"`
	Direction  domain.Direction `json:"direction"`
}

// beginSetupPayload starts an edit when QuestionID is set, otherwise an add
// of Type after the question at order After.
type beginSetupPayload struct {
	QuestionID string              `json:"questionId"`
	Type       domain.QuestionType `json:"type"`
	After      int                 `json:"after"`
}

type joinedPayload struct {
	Layout  domain.Layout `json:"layout"`
	Editors []app.Editor  `json:"editors"`
}

type layoutPayload struct {
	Layout domain.Layout `json:"layout"`
	Noop   string        `json:"noop,omitempty"`
}

type setupPayload struct {
	app.Snapshot
	Editing   bool `json:"editing"`
	CanCommit bool `json:"canCommit"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var errNoSetup = &domain.ValidationError{Reason: "no setup in progress"}

// connection holds the per-socket state of one editor.
type connection struct {
	formID   string
	editorID string
	send     chan<- outboundMessage[any]
	draft    *app.SetupDraft
	latest   app.Snapshot
}

// ServeWS upgrades HTTP requests to websockets and wires them into the form editing use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	formID := r.URL.Query().Get("formId")
	editorID := r.URL.Query().Get("editorId")
	displayName := r.URL.Query().Get("name")
	if formID == "" || editorID == "" || displayName == "" {
		http.Error(w, "missing formId, editorId, or name", http.StatusBadRequest)
		return
	}
	log := h.log.With(zap.String("form_id", formID), zap.String("editor_id", editorID))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	layout, editors, err := h.service.Join(ctx, formID, editorID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	defer h.service.Leave(ctx, formID, editorID)

	updates, cancel, err := h.service.Subscribe(ctx, formID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// The writer goroutine is the only one touching conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug("ws write failed", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "layout", Payload: layoutPayload{Layout: update}}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Layout: layout, Editors: editors}}

	c := &connection{formID: formID, editorID: editorID, send: send}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, c, inbound); err != nil {
			log.Debug("ws message rejected", zap.String("type", inbound.Type), zap.Error(err))
			send <- outboundMessage[any]{Type: "error", Payload: toErrorPayload(err)}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, c *connection, inbound inboundMessage) error {
	switch inbound.Type {
	case "moveQuestion", "deleteQuestion", "setRequired":
		var p questionPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		var (
			out app.Outcome
			err error
		)
		switch inbound.Type {
		case "moveQuestion":
			out, err = h.service.MoveQuestion(ctx, c.formID, c.editorID, p.QuestionID, p.Direction)
		case "deleteQuestion":
			out, err = h.service.DeleteQuestion(ctx, c.formID, c.editorID, p.QuestionID, p.Authorized)
		default:
			out, err = h.service.SetRequired(ctx, c.formID, c.editorID, p.QuestionID, p.Required)
		}
		return c.reply(out, err)
	case "addBreak", "moveBreak", "deleteBreak":
		var p breakPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		var (
			out app.Outcome
			err error
		)
		switch inbound.Type {
		case "addBreak":
			out, err = h.service.AddPageBreak(ctx, c.formID, c.editorID, p.AfterOrder)
		case "moveBreak":
			out, err = h.service.MovePageBreak(ctx, c.formID, c.editorID, p.BreakID, p.Direction)
		default:
			out, err = h.service.DeletePageBreak(ctx, c.formID, c.editorID, p.BreakID)
		}
		return c.reply(out, err)
	case "beginSetup":
		var p beginSetupPayload
		if err := decode(inbound.Payload, &p); err != nil {
			return err
		}
		var (
			draft *app.SetupDraft
			err   error
		)
		if p.QuestionID != "" {
			draft, err = h.service.BeginEdit(ctx, c.formID, c.editorID, p.QuestionID)
		} else {
			draft, err = h.service.BeginAdd(c.formID, c.editorID, p.Type, p.After)
		}
		if err != nil {
			return err
		}
		c.draft = draft
		c.showSetup(draft.Snapshot())
		return nil
	case "setupAction":
		if c.draft == nil {
			return errNoSetup
		}
		var action engine.Action
		if err := decode(inbound.Payload, &action); err != nil {
			return err
		}
		c.showSetup(c.draft.Dispatch(action))
		return nil
	case "commitSetup":
		if c.draft == nil {
			return errNoSetup
		}
		if c.latest.Commit == nil {
			if err := c.latest.Validation.Err(); err != nil {
				return err
			}
			return &domain.ValidationError{Reason: "setup is not complete"}
		}
		out, err := c.latest.Commit(ctx)
		if err != nil {
			return err
		}
		c.draft = nil
		c.latest = app.Snapshot{}
		c.send <- outboundMessage[any]{Type: "committed", Payload: out}
		return nil
	default:
		return &domain.ValidationError{Reason: "unsupported message type " + inbound.Type}
	}
}

// reply answers a structural operation. Accepted changes reach the editor
// through the session broadcast; no-ops are only reported to the caller.
func (c *connection) reply(out app.Outcome, err error) error {
	if err != nil {
		return err
	}
	if out.Noop != "" {
		c.send <- outboundMessage[any]{Type: "layout", Payload: layoutPayload{Layout: out.Layout, Noop: out.Noop}}
	}
	return nil
}

func (c *connection) showSetup(snap app.Snapshot) {
	c.latest = snap
	c.send <- outboundMessage[any]{Type: "setup", Payload: setupPayload{
		Snapshot:  snap,
		Editing:   c.draft.Editing(),
		CanCommit: snap.Commit != nil,
	}}
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &domain.ValidationError{Reason: "invalid payload: " + err.Error()}
	}
	return nil
}

func toErrorPayload(err error) errorPayload {
	var pe *domain.PersistenceError
	if errors.As(err, &pe) {
		// adapter details stay in the server log
		return errorPayload{Kind: domain.KindPersistence, Message: "could not save the change, please retry"}
	}
	return errorPayload{Kind: domain.ErrorKind(err), Message: err.Error()}
}
