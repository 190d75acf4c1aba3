// Package ws exposes the derivation engines over a WebSocket session. The
// session keeps the configurator form and the previous-asset memory cell
// server-side, so successive DERIVE requests get transition detection for
// free; HTTP callers carry that memory themselves.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"shoshin/internal/protocol"
	"shoshin/internal/roster/aggregate"
	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/resolve"
	"shoshin/internal/roster/state"
	"shoshin/internal/roster/tuning"
)

type Server struct {
	cats     *catalogs.Catalogs
	resolver *resolve.Resolver
	engine   *aggregate.Engine
	schemas  *protocol.Schemas
	tune     tuning.Tuning
	log      *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(cats *catalogs.Catalogs, resolver *resolve.Resolver, engine *aggregate.Engine, schemas *protocol.Schemas, tune tuning.Tuning, logger *log.Logger) *Server {
	return &Server{
		cats:     cats,
		resolver: resolver,
		engine:   engine,
		schemas:  schemas,
		tune:     tune,
		log:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		// Per-session configurator state: one form, one memory cell. The
		// read loop serializes recomputation, matching the engine's
		// no-reentrancy assumption.
		var form state.Form
		var mem resolve.Memory
		init := true

		readTimeout := time.Duration(s.tune.WSReadTimeoutSec) * time.Second
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				s.writeJSON(conn, protocol.NewError("", protocol.ErrProtoBadRequest, "bad json"))
				continue
			}

			switch base.Type {
			case protocol.TypeDerive:
				s.handleDerive(conn, msg, &form, &mem, &init)
			case protocol.TypeAggregate:
				s.handleAggregate(conn, msg)
			default:
				s.writeJSON(conn, protocol.NewError("", protocol.ErrProtoBadRequest, "unknown type "+base.Type))
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return false
	}
	if base.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return false
	}
	if s.schemas != nil {
		if err := protocol.ValidateRaw(s.schemas.Hello, msg); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid HELLO"),
				time.Now().Add(time.Second))
			return false
		}
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		Catalogs:        s.cats.Digests(),
	}
	return s.writeJSON(conn, welcome)
}

func (s *Server) handleDerive(conn *websocket.Conn, msg []byte, form *state.Form, mem *resolve.Memory, init *bool) {
	if s.schemas != nil {
		if err := protocol.ValidateRaw(s.schemas.Derive, msg); err != nil {
			s.writeJSON(conn, protocol.NewError("", protocol.ErrProtoBadRequest, err.Error()))
			return
		}
	}
	var req protocol.DeriveMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		s.writeJSON(conn, protocol.NewError("", protocol.ErrProtoBadRequest, "bad DERIVE"))
		return
	}

	*form = req.State.Form()
	isInit := *init || req.Init
	*init = false

	model := s.resolver.Converge(form, mem, isInit)

	s.writeJSON(conn, protocol.ModelMsg{
		Type:            protocol.TypeModel,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		State:           protocol.PayloadFromForm(*form),
		Model:           model,
	})
}

func (s *Server) handleAggregate(conn *websocket.Conn, msg []byte) {
	if s.schemas != nil {
		if err := protocol.ValidateRaw(s.schemas.Aggregate, msg); err != nil {
			s.writeJSON(conn, protocol.NewError("", protocol.ErrProtoBadRequest, err.Error()))
			return
		}
	}
	var req protocol.AggregateMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		s.writeJSON(conn, protocol.NewError("", protocol.ErrProtoBadRequest, "bad AGGREGATE"))
		return
	}
	if len(req.Units) > s.tune.MaxAggregateUnits {
		s.writeJSON(conn, protocol.NewError(req.ReqID, protocol.ErrTooLarge, "too many units"))
		return
	}

	totals := s.engine.Aggregate(req.Units)
	s.writeJSON(conn, protocol.TotalsMsg{
		Type:            protocol.TypeTotals,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		RosterID:        req.RosterID,
		Totals:          totals,
	})
}

func (s *Server) writeJSON(conn *websocket.Conn, v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Printf("ws marshal: %v", err)
		return false
	}
	_ = conn.SetWriteDeadline(time.Now().Add(time.Duration(s.tune.WSWriteTimeoutSec) * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return false
	}
	return true
}
