// Package rpc exposes resolution over gRPC. Messages are plain Go structs
// carried by a JSON codec.
package rpc

import (
	"context"

	"google.golang.org/grpc"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/workspace"
)

const (
	ServiceName   = "bindery.resolver.v1.Resolver"
	resolveMethod = "/" + ServiceName + "/Resolve"
)

type ResolveRequest struct {
	Workspace workspace.Document `json:"workspace"`
	// Effective lists effective directive values admitted besides "resolve",
	// in addition to the server's configuration.
	Effective []string `json:"effective,omitempty"`
}

// ResolveResponse carries the outcome in the same shape as a Resolution's
// status: wires and run order when resolved, the causal chain when not.
type ResolveResponse struct {
	SessionID string                     `json:"sessionId"`
	Status    resolvev1.ResolutionStatus `json:"status"`
}

// ResolverServer is the server API for the Resolver service.
type ResolverServer interface {
	Resolve(ctx context.Context, req *ResolveRequest) (*ResolveResponse, error)
}

func RegisterResolverServer(s grpc.ServiceRegistrar, srv ResolverServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func resolveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResolveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResolverServer).Resolve(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: resolveMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ResolverServer).Resolve(ctx, req.(*ResolveRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for the Resolver service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ResolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Resolve", Handler: resolveHandler},
	},
	Streams: []grpc.StreamDesc{},
}

// Client calls a remote Resolver service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Resolve(ctx context.Context, req *ResolveRequest, opts ...grpc.CallOption) (*ResolveResponse, error) {
	out := new(ResolveResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, resolveMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
