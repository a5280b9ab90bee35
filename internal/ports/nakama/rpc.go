package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/nashgetch/rg-ahaz-be-sub000/internal/app"
	"github.com/nashgetch/rg-ahaz-be-sub000/internal/config"
	"github.com/nashgetch/rg-ahaz-be-sub000/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// gRPC status codes used by runtime.NewError.
const (
	codeInvalidArgument    = 3
	codeNotFound           = 5
	codeFailedPrecondition = 9
	codeAborted            = 10
	codeInternal           = 13
	codeUnauthenticated    = 16
)

type startRequest struct {
	RoomID string `json:"room_id"`
}

type playRequest struct {
	SessionID string `json:"session_id"`
	CardIDs   []int  `json:"card_ids"`
	Suit      string `json:"suit,omitempty"`
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type callOutRequest struct {
	SessionID    string `json:"session_id"`
	TargetUserID string `json:"target_user_id"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	for id, fn := range map[string]func(context.Context, runtime.Logger, *sql.DB, runtime.NakamaModule, string) (string, error){
		RpcCrazyStart:         rpcCrazyStart,
		RpcCrazyPlay:          rpcCrazyPlay,
		RpcCrazyDraw:          rpcCrazyDraw,
		RpcCrazyPass:          rpcCrazyPass,
		RpcCrazyAcceptPenalty: rpcCrazyAcceptPenalty,
		RpcCrazyDeclareLow:    rpcCrazyDeclareLow,
		RpcCrazyCallOut:       rpcCrazyCallOut,
		RpcCrazyStatus:        rpcCrazyStatus,
	} {
		if err := initializer.RegisterRpc(id, fn); err != nil {
			return err
		}
	}
	return nil
}

// newService wires a per-call Service. Sessions live in storage, so there is
// nothing to share between calls.
func newService(logger runtime.Logger, nk runtime.NakamaModule) *app.Service {
	return app.NewService(
		NewSessionStoreAdapter(nk),
		NewNakamaEconomyAdapter(nk),
		NewNakamaRosterAdapter(nk),
		logger,
		config.Get(),
		nil,
	)
}

func rpcCrazyStart(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("no user id in context", codeUnauthenticated)
	}
	var req startRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}

	resp, err := newService(logger, nk).StartSession(ctx, userID, req.RoomID)
	if err != nil {
		return "", rpcError(logger, RpcCrazyStart, userID, err)
	}
	return marshalResponse(resp)
}

func rpcCrazyPlay(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("no user id in context", codeUnauthenticated)
	}
	var req playRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}

	resp, err := newService(logger, nk).Play(ctx, userID, req.SessionID, req.CardIDs, req.Suit)
	if err != nil {
		return "", rpcError(logger, RpcCrazyPlay, userID, err)
	}
	return marshalResponse(resp)
}

func rpcCrazyDraw(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return sessionRPC(ctx, logger, nk, payload, RpcCrazyDraw, func(svc *app.Service, userID, sessionID string) (*app.ActionResponse, error) {
		return svc.Draw(ctx, userID, sessionID)
	})
}

func rpcCrazyPass(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return sessionRPC(ctx, logger, nk, payload, RpcCrazyPass, func(svc *app.Service, userID, sessionID string) (*app.ActionResponse, error) {
		return svc.Pass(ctx, userID, sessionID)
	})
}

func rpcCrazyAcceptPenalty(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return sessionRPC(ctx, logger, nk, payload, RpcCrazyAcceptPenalty, func(svc *app.Service, userID, sessionID string) (*app.ActionResponse, error) {
		return svc.AcceptPenalty(ctx, userID, sessionID)
	})
}

func rpcCrazyDeclareLow(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return sessionRPC(ctx, logger, nk, payload, RpcCrazyDeclareLow, func(svc *app.Service, userID, sessionID string) (*app.ActionResponse, error) {
		return svc.DeclareLow(ctx, userID, sessionID)
	})
}

func rpcCrazyStatus(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return sessionRPC(ctx, logger, nk, payload, RpcCrazyStatus, func(svc *app.Service, userID, sessionID string) (*app.ActionResponse, error) {
		return svc.Status(ctx, userID, sessionID)
	})
}

func rpcCrazyCallOut(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("no user id in context", codeUnauthenticated)
	}
	var req callOutRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}

	resp, err := newService(logger, nk).CallOut(ctx, userID, req.SessionID, req.TargetUserID)
	if err != nil {
		return "", rpcError(logger, RpcCrazyCallOut, userID, err)
	}
	return marshalResponse(resp)
}

// sessionRPC handles the actions whose payload is just a session id.
func sessionRPC(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, payload, rpcID string, fn func(svc *app.Service, userID, sessionID string) (*app.ActionResponse, error)) (string, error) {
	userID, ok := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if !ok || userID == "" {
		return "", runtime.NewError("no user id in context", codeUnauthenticated)
	}
	var req sessionRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", codeInvalidArgument)
	}

	resp, err := fn(newService(logger, nk), userID, req.SessionID)
	if err != nil {
		return "", rpcError(logger, rpcID, userID, err)
	}
	return marshalResponse(resp)
}

// rpcError maps service errors onto gRPC status codes. Messages pass through
// unchanged except for internals, which stay opaque to clients.
func rpcError(logger runtime.Logger, rpcID, userID string, err error) error {
	switch {
	case app.IsInputError(err):
		return runtime.NewError(err.Error(), codeInvalidArgument)
	case errors.Is(err, ports.ErrSessionMissing), errors.Is(err, ports.ErrRoomMissing):
		return runtime.NewError(err.Error(), codeNotFound)
	case errors.Is(err, ports.ErrVersionConflict):
		return runtime.NewError(err.Error(), codeAborted)
	case errors.Is(err, ports.ErrRoomBusy):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	case app.IsIllegitimate(err):
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	default:
		logger.Error("%s [User:%s]: %v", rpcID, userID, err)
		return runtime.NewError("internal error", codeInternal)
	}
}

func marshalResponse(resp *app.ActionResponse) (string, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to marshal response", codeInternal)
	}
	return string(b), nil
}
