package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"voxelstruct.ai/internal/buildsvc"
	"voxelstruct.ai/internal/protocol"
)

type Server struct {
	svc *buildsvc.Service
	log *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(svc *buildsvc.Service, logger *log.Logger) *Server {
	s := &Server{
		svc: svc,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

type session struct {
	id     string
	blocks bool
	out    chan []byte
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-sess.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. Builds run here, one at a time per connection, so a
		// client sees replies in request order.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			reply := s.handle(ctx, sess, msg)
			if reply == nil {
				continue
			}
			b, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			select {
			case sess.out <- b:
			case <-ctx.Done():
			default:
				b, _ = json.Marshal(protocol.NewError("", protocol.ErrRateLimit, "outgoing queue full"))
				select {
				case sess.out <- b:
				default:
				}
			}
		}
		s.printf("session %s closed", sess.id)
	}
}

func (s *Server) handle(ctx context.Context, sess *session, msg []byte) any {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "bad json")
	}
	if base.Type != protocol.TypeBuild {
		return protocol.NewError("", protocol.ErrProtoBadRequest, "unexpected %s", base.Type)
	}
	var req protocol.BuildMsg
	if err := json.Unmarshal(msg, &req); err != nil {
		return protocol.NewError("", protocol.ErrBadRequest, "bad BUILD: %v", err)
	}
	in, err := s.svc.Build(ctx, req, "ws:"+sess.id)
	if err != nil {
		var em protocol.ErrorMsg
		if errors.As(err, &em) {
			return em
		}
		return protocol.NewError(req.ReqID, protocol.ErrInternal, "%v", err)
	}
	return s.svc.Describe(req.ReqID, in, sess.blocks)
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = writeJSON(conn, protocol.NewError("", protocol.ErrProtoVersion, "protocol_version %q, want %q", hello.ProtocolVersion, protocol.Version))
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	maxQ := hello.Capabilities.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	sess := &session{
		id:     uuid.NewString(),
		blocks: hello.Capabilities.Blocks,
		out:    make(chan []byte, maxQ),
	}
	if err := writeJSON(conn, s.svc.Welcome(sess.id)); err != nil {
		return nil
	}
	s.printf("session %s opened client=%s", sess.id, hello.ClientName)
	return sess
}

func (s *Server) printf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
