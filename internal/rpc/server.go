package rpc

import (
	"context"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
	"github.com/bayleafwalker/bindery-resolver/internal/resource"
)

// Server resolves workspaces sent by clients. Sessions never prompt: ties
// keep the preference order.
type Server struct {
	Config config.Config
	// Validators check the workspace resources. Nil means
	// resource.DefaultValidators.
	Validators *resource.Validators
}

func (s *Server) Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is nil")
	}
	validators := s.Validators
	if validators == nil {
		validators = resource.DefaultValidators()
	}
	ws, err := req.Workspace.Build(validators)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(ws.Requirements) == 0 {
		return nil, status.Error(codes.InvalidArgument, "workspace has no requirements")
	}

	cfg := s.Config
	cfg.Effective = append(append([]string(nil), cfg.Effective...), req.Effective...)
	res, err := ws.Resolve(ctx, cfg, resolver.DefaultCallback{})
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if res.Outcome == resolver.Cancelled {
		if cerr := ctx.Err(); cerr != nil {
			return nil, status.FromContextError(cerr).Err()
		}
		return nil, status.Error(codes.DeadlineExceeded, "resolution timed out")
	}
	logr.FromContextOrDiscard(ctx).Info("resolved workspace",
		"session", res.SessionID,
		"outcome", res.Outcome.String(),
		"steps", res.Stats.Steps,
	)
	return &ResolveResponse{SessionID: res.SessionID, Status: manifest.Status(res)}, nil
}

// LoggingInterceptor puts log, tagged with the called method, into the
// context of each unary call and logs failed calls.
func LoggingInterceptor(log logr.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		l := log.WithValues("method", info.FullMethod)
		resp, err := handler(logr.NewContext(ctx, l), req)
		if err != nil {
			if status.Code(err) == codes.InvalidArgument {
				l.V(1).Info("rejected request", "error", err.Error())
			} else {
				l.Error(err, "call failed")
			}
		}
		return resp, err
	}
}
