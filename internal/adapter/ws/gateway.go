// Package ws serves the browser protocol over a websocket. Each connection
// carries its own Session; messages are handled one at a time in the order
// they arrive.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"civico/internal/app/auth"
	"civico/internal/app/playerstate"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMessagesPerSecond = 10
	defaultBurst             = 20
	defaultWriteTimeout      = 10 * time.Second
	maxMessageBytes          = 16 << 10
)

var ErrNotLoggedIn = errors.New("not logged in")

type Gateway struct {
	Register auth.RegisterUseCase
	Login    auth.LoginUseCase
	Logout   auth.LogoutUseCase
	Verify   auth.VerifyUseCase
	State    playerstate.UseCase
	Log      *zap.Logger
	Now      func() time.Time

	MessagesPerSecond float64
	Burst             int
	WriteTimeout      time.Duration
	CheckOrigin       func(r *http.Request) bool
}

func (g Gateway) upgrader() websocket.Upgrader {
	check := g.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return websocket.Upgrader{CheckOrigin: check}
}

func (g Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	up := g.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		g.logger().Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	writeTimeout := g.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	sender := &connSender{conn: conn, writeTimeout: writeTimeout}
	session := &Session{ConnID: uuid.NewString()}
	limiter := g.limiter()
	log := g.logger().With(zap.String("conn_id", session.ConnID))
	log.Debug("ws connected", zap.String("remote", r.RemoteAddr))

	ctx := r.Context()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read ended", zap.Error(err))
			}
			return
		}
		if !limiter.Allow() {
			_ = sender.Send(newError("Too many requests."))
			continue
		}
		var msg Inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = sender.Send(newError("Malformed message."))
			continue
		}
		if err := g.Handle(ctx, session, msg, sender); err != nil {
			log.Debug("ws write failed", zap.Error(err))
			return
		}
	}
}

func (g Gateway) limiter() *rate.Limiter {
	perSecond := g.MessagesPerSecond
	if perSecond <= 0 {
		perSecond = defaultMessagesPerSecond
	}
	burst := g.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Handle processes one message for session. Failures of the request are
// reported to the client as ERROR messages; the returned error is only set
// when the reply could not be written.
func (g Gateway) Handle(ctx context.Context, session *Session, msg Inbound, out Sender) error {
	switch msg.Type {
	case TypeCreateAccount:
		resp, err := g.Register.Execute(ctx, auth.RegisterRequest{Username: msg.Username, Password: msg.Password})
		if err != nil {
			return out.Send(newError(auth.UserMessage(err)))
		}
		session.Bind(resp.SettlementID, msg.Username)
		if err := out.Send(TokenMessage{Type: TypeToken, Token: resp.Token, Username: msg.Username}); err != nil {
			return err
		}
		return g.sendState(ctx, session, out)

	case TypeLogin:
		resp, err := g.Login.Execute(ctx, auth.LoginRequest{Username: msg.Username, Password: msg.Password})
		if err != nil {
			return out.Send(newError(auth.UserMessage(err)))
		}
		session.Bind(resp.SettlementID, msg.Username)
		if err := out.Send(TokenMessage{Type: TypeToken, Token: resp.Token, Username: msg.Username}); err != nil {
			return err
		}
		return g.sendState(ctx, session, out)

	case TypeLogout:
		if err := g.authenticate(ctx, session, msg.Token); err != nil {
			session.Clear()
			return out.Send(TokenMessage{Type: TypeToken})
		}
		if err := g.Logout.Execute(ctx, session.SettlementID); err != nil {
			return out.Send(newError(playerstate.UserMessage(err)))
		}
		session.Clear()
		return out.Send(TokenMessage{Type: TypeToken})

	case TypeGetData:
		if err := g.authenticate(ctx, session, msg.Token); err != nil {
			return g.sendAuthError(err, out)
		}
		return g.sendState(ctx, session, out)

	case TypeFieldLevelUp:
		if err := g.authenticate(ctx, session, msg.Token); err != nil {
			return g.sendAuthError(err, out)
		}
		v, err := g.State.LevelUpField(ctx, session.SettlementID, playerstate.LevelUpRequest{
			Row:      msg.Row,
			Column:   msg.Column,
			NewLevel: msg.NewLevel,
		})
		return g.reply(v, err, out)

	case TypeDispatch:
		if err := g.authenticate(ctx, session, msg.Token); err != nil {
			return g.sendAuthError(err, out)
		}
		v, err := g.State.Dispatch(ctx, session.SettlementID, playerstate.DispatchRequest{Target: msg.Target, Troops: msg.Troops})
		return g.reply(v, err, out)

	case TypeDisablePacifism:
		if err := g.authenticate(ctx, session, msg.Token); err != nil {
			return g.sendAuthError(err, out)
		}
		v, err := g.State.DisablePacifism(ctx, session.SettlementID)
		return g.reply(v, err, out)

	default:
		return out.Send(newError("Unknown message type."))
	}
}

// authenticate binds the session to the token's settlement when a token is
// given, and otherwise relies on an earlier login on this connection.
func (g Gateway) authenticate(ctx context.Context, session *Session, token string) error {
	if token == "" {
		if session.SettlementID == "" {
			return ErrNotLoggedIn
		}
		return nil
	}
	id, err := g.Verify.Execute(ctx, auth.VerifyRequest{Token: token})
	if err != nil {
		return err
	}
	if id != session.SettlementID {
		session.Bind(id, "")
	}
	return nil
}

func (g Gateway) sendAuthError(err error, out Sender) error {
	if errors.Is(err, ErrNotLoggedIn) || errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidRequest) {
		return out.Send(newError("Please log in."))
	}
	return out.Send(newError(playerstate.UserMessage(err)))
}

func (g Gateway) sendState(ctx context.Context, session *Session, out Sender) error {
	v, err := g.State.GetReconciledState(ctx, session.SettlementID)
	return g.reply(v, err, out)
}

func (g Gateway) reply(v playerstate.View, err error, out Sender) error {
	if err != nil {
		return out.Send(newError(playerstate.UserMessage(err)))
	}
	return out.Send(newSendData(v, g.now().UnixMilli()))
}

func (g Gateway) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g Gateway) logger() *zap.Logger {
	if g.Log != nil {
		return g.Log
	}
	return zap.NewNop()
}
