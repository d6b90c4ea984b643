// Package ws exposes the session surface over websockets. Each connection
// is bound to one authenticated participant address by a signed token;
// requests are dispatched to the lifecycle controller and live session views
// are streamed back through the projection layer.
package ws

import (
	"context"
	"errors"
	"net/http"
	stdsync "sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"

	"github.com/swarnasn29/LiarsPoker-SOL/engine"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/game"
	"github.com/swarnasn29/LiarsPoker-SOL/internal/ledger"
	ssync "github.com/swarnasn29/LiarsPoker-SOL/internal/sync"
)

// Gateway upgrades HTTP requests to authenticated websocket sessions.
type Gateway struct {
	ctrl      *game.Controller
	projector *ssync.Projector
	secret    []byte
	log       *logrus.Entry
}

// NewGateway wires the websocket surface over a controller and projector.
func NewGateway(ctrl *game.Controller, projector *ssync.Projector, secret []byte, log *logrus.Entry) *Gateway {
	return &Gateway{ctrl: ctrl, projector: projector, secret: secret, log: log}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}

	addr, err := ParseToken(g.secret, r.URL.Query().Get("token"))
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "invalid token")
		return
	}

	c := &client{
		gw:   g,
		conn: conn,
		addr: addr,
		log:  g.log.WithField("participant", addr.Short()),
	}
	c.log.Info("participant connected")
	c.run(r.Context())
	c.log.Info("participant disconnected")
}

// client is one authenticated connection. Writes are serialized: the watch
// goroutine and the request loop both push frames.
type client struct {
	gw   *Gateway
	conn *websocket.Conn
	addr engine.Address
	log  *logrus.Entry

	writeMu     stdsync.Mutex
	watchCancel context.CancelFunc
}

func (c *client) run(ctx context.Context) {
	defer func() {
		if c.watchCancel != nil {
			c.watchCancel()
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var req Request
		if err := wsjson.Read(ctx, c.conn, &req); err != nil {
			return
		}
		c.send(ctx, c.handle(ctx, req))
	}
}

func (c *client) send(ctx context.Context, resp Response) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wsjson.Write(ctx, c.conn, resp); err != nil {
		c.log.WithError(err).Debug("write failed")
	}
}

func (c *client) handle(ctx context.Context, req Request) Response {
	switch req.Type {
	case "create":
		id, addr, err := c.gw.ctrl.CreateSession(ctx, c.addr, engine.Params{
			RequiredPlayers: req.RequiredPlayers,
			MinBid:          req.MinBid,
		})
		if err != nil {
			return errResponse(err)
		}
		return Response{Type: msgCreated, Session: addr, SessionID: id}

	case "join":
		commit, err := decode32("commitment", req.Commitment)
		if err != nil {
			return badRequest(err)
		}
		return c.ack(c.gw.ctrl.JoinSession(ctx, req.Session, c.addr, commit))

	case "start":
		return c.ack(c.gw.ctrl.StartSession(ctx, req.Session, c.addr))

	case "bid":
		return c.ack(c.gw.ctrl.PlaceBid(ctx, req.Session, c.addr, req.Digit, req.Quantity, req.Stake))

	case "challenge":
		return c.ack(c.gw.ctrl.Challenge(ctx, req.Session, c.addr))

	case "reveal":
		salt, err := decode32("salt", req.Salt)
		if err != nil {
			return badRequest(err)
		}
		return c.ack(c.gw.ctrl.Reveal(ctx, req.Session, c.addr, req.Digit, salt))

	case "cancel":
		return c.ack(c.gw.ctrl.CancelSession(ctx, req.Session, c.addr))

	case "watch":
		c.watch(ctx, req.Session)
		return Response{Type: msgOK}

	case "list":
		recs, err := c.gw.ctrl.ListOpenSessions(ctx)
		if err != nil {
			return errResponse(err)
		}
		return Response{Type: msgSessions, Sessions: summarize(recs)}

	case "history":
		recs, err := c.gw.ctrl.History(ctx, c.addr)
		if err != nil {
			return errResponse(err)
		}
		return Response{Type: msgSessions, Sessions: summarize(recs)}

	case "balance":
		lamports, err := c.gw.ctrl.Balance(ctx, c.addr)
		if err != nil {
			return errResponse(err)
		}
		return Response{Type: msgBalance, Lamports: lamports}

	default:
		return Response{Type: msgError, Code: "unknown_type", Message: "unknown request type " + req.Type}
	}
}

func (c *client) ack(err error) Response {
	if err != nil {
		return errResponse(err)
	}
	return Response{Type: msgOK}
}

// watch streams the session's view to this connection until the connection
// closes or a new watch replaces it. Only one session is watched at a time.
func (c *client) watch(ctx context.Context, session engine.Address) {
	if c.watchCancel != nil {
		c.watchCancel()
	}
	watchCtx, cancel := context.WithCancel(ctx)
	c.watchCancel = cancel

	proj := ssync.NewProjection(session, c.addr)
	proj.OnApply = func(v ssync.View) {
		c.send(watchCtx, Response{Type: msgSnapshot, Session: session, View: &v})
	}
	proj.OnRevealRequired = func() {
		c.send(watchCtx, Response{Type: msgRevealRequired, Session: session})
	}
	proj.OnFinished = func(winner engine.Address, pool uint64) {
		c.send(watchCtx, Response{Type: msgFinished, Session: session, Winner: winner, PrizePool: pool})
	}

	go func() {
		if err := c.gw.projector.Watch(watchCtx, proj); err != nil && !errors.Is(err, context.Canceled) {
			c.log.WithError(err).Warn("watch ended")
		}
	}()
}

// summarize flattens records into listing rows.
func summarize(recs []ledger.Record) []SessionSummary {
	out := make([]SessionSummary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, SessionSummary{
			Address:         rec.Address,
			ID:              rec.Session.ID,
			Creator:         rec.Session.Creator,
			State:           rec.Session.State.String(),
			NumPlayers:      rec.Session.NumPlayers,
			RequiredPlayers: rec.Session.RequiredPlayers,
			MinBid:          rec.Session.MinBid,
		})
	}
	return out
}

// badRequest reports a frame the client encoded wrong, as opposed to a
// well-formed request the rules rejected.
func badRequest(err error) Response {
	return Response{Type: msgError, Code: "bad_request", Message: err.Error()}
}

// errResponse maps an error to a wire frame. Engine rejections keep their
// rejection name as the code; ledger errors map to stable codes.
func errResponse(err error) Response {
	var rej engine.Reject
	if errors.As(err, &rej) {
		return Response{Type: msgError, Code: string(rej), Message: rej.Error()}
	}
	code := "internal"
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		code = "not_found"
	case errors.Is(err, ledger.ErrConflict):
		code = "conflict"
	case errors.Is(err, ledger.ErrAlreadyActive):
		code = "already_active"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		code = "insufficient_funds"
	case errors.Is(err, ledger.ErrUnavailable):
		code = "unavailable"
	}
	return Response{Type: msgError, Code: code, Message: err.Error()}
}
