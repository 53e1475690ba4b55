package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"civico/internal/app/auth"
	"civico/internal/app/playerstate"
	"civico/internal/app/ports"
	"civico/internal/app/replay"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"
)

const authorizationHeader = "Authorization"

var ErrMissingToken = errors.New("missing bearer token")

type Handler struct {
	RegisterUC auth.RegisterUseCase
	LoginUC    auth.LoginUseCase
	LogoutUC   auth.LogoutUseCase
	AuthUC     auth.VerifyUseCase
	StateUC    playerstate.UseCase
	ReplayUC   replay.UseCase
	KPI        kpiSnapshotProvider
	Log        *zap.Logger

	// AllowedOrigins limits CORS; empty allows any origin.
	AllowedOrigins []string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowedOrigins))

	account := s.Group("/api/account")
	account.POST("/register", h.register)
	account.POST("/login", h.login)
	account.POST("/logout", h.logout)

	st := s.Group("/api/settlement")
	st.GET("/state", h.state)
	st.POST("/fields/levelup", h.levelUp)
	st.POST("/dispatch", h.dispatch)
	st.POST("/pacifism/disable", h.disablePacifism)
	st.GET("/reports", h.reports)

	s.GET("/ops/kpi", h.kpi)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type levelUpRequest struct {
	Row      int `json:"row"`
	Column   int `json:"column"`
	NewLevel int `json:"new_level,omitempty"`
}

type dispatchRequest struct {
	Target worldmap.Point    `json:"target"`
	Troops settlement.Troops `json:"troops"`
}

func (h Handler) register(c context.Context, ctx *app.RequestContext) {
	var body credentialsRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.RegisterUC.Execute(c, auth.RegisterRequest{Username: body.Username, Password: body.Password})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) login(c context.Context, ctx *app.RequestContext) {
	var body credentialsRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.LoginUC.Execute(c, auth.LoginRequest{Username: body.Username, Password: body.Password})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) logout(c context.Context, ctx *app.RequestContext) {
	settlementID, err := h.requireSettlement(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	if err := h.LogoutUC.Execute(c, settlementID); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{"ok": true})
}

func (h Handler) state(c context.Context, ctx *app.RequestContext) {
	settlementID, err := h.requireSettlement(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	view, err := h.StateUC.GetReconciledState(c, settlementID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

func (h Handler) levelUp(c context.Context, ctx *app.RequestContext) {
	settlementID, err := h.requireSettlement(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var body levelUpRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	view, err := h.StateUC.LevelUpField(c, settlementID, playerstate.LevelUpRequest{
		Row:      body.Row,
		Column:   body.Column,
		NewLevel: body.NewLevel,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

func (h Handler) dispatch(c context.Context, ctx *app.RequestContext) {
	settlementID, err := h.requireSettlement(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var body dispatchRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	view, err := h.StateUC.Dispatch(c, settlementID, playerstate.DispatchRequest{Target: body.Target, Troops: body.Troops})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

func (h Handler) disablePacifism(c context.Context, ctx *app.RequestContext) {
	settlementID, err := h.requireSettlement(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	view, err := h.StateUC.DisablePacifism(c, settlementID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, view)
}

func (h Handler) reports(c context.Context, ctx *app.RequestContext) {
	settlementID, err := h.requireSettlement(c, ctx)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		SettlementID: settlementID,
		Limit:        limit,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (h Handler) requireSettlement(c context.Context, ctx *app.RequestContext) (string, error) {
	header := strings.TrimSpace(string(ctx.GetHeader(authorizationHeader)))
	if header == "" {
		return "", ErrMissingToken
	}
	return h.AuthUC.Execute(c, auth.VerifyRequest{Token: header})
}

func (h Handler) writeError(ctx *app.RequestContext, err error) {
	status, code := classify(err)
	if status >= consts.StatusInternalServerError && h.Log != nil {
		h.Log.Error("request failed", zap.String("path", string(ctx.Path())), zap.Error(err))
	}
	writeErrorBody(ctx, status, code, userMessage(err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingToken):
		return consts.StatusUnauthorized, "missing_token"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return consts.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrUsernameTaken):
		return consts.StatusConflict, "username_taken"
	case errors.Is(err, auth.ErrMapFull):
		return consts.StatusServiceUnavailable, "map_full"
	case errors.Is(err, playerstate.ErrInsufficientResources):
		return consts.StatusConflict, "insufficient_resources"
	case errors.Is(err, playerstate.ErrInsufficientTroops):
		return consts.StatusConflict, "insufficient_troops"
	case errors.Is(err, playerstate.ErrPacifist):
		return consts.StatusConflict, "pacifist"
	case errors.Is(err, playerstate.ErrInvalidField):
		return consts.StatusBadRequest, "invalid_field"
	case errors.Is(err, playerstate.ErrInvalidTarget):
		return consts.StatusBadRequest, "invalid_target"
	case errors.Is(err, auth.ErrInvalidRequest),
		errors.Is(err, playerstate.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest):
		return consts.StatusBadRequest, "bad_request"
	case errors.Is(err, ports.ErrNotFound):
		return consts.StatusNotFound, "not_found"
	case errors.Is(err, ports.ErrConflict):
		return consts.StatusConflict, "conflict"
	case errors.Is(err, ports.ErrUnavailable):
		return consts.StatusServiceUnavailable, "unavailable"
	default:
		return consts.StatusInternalServerError, "internal_error"
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "Please log in."
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUsernameTaken),
		errors.Is(err, auth.ErrMapFull),
		errors.Is(err, auth.ErrInvalidRequest):
		return auth.UserMessage(err)
	default:
		return playerstate.UserMessage(err)
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
