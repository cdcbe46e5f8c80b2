package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	resolvev1 "github.com/bayleafwalker/bindery-resolver/api/v1alpha1"
	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/workspace"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(testr.New(t))))
	RegisterResolverServer(srv, &Server{Config: config.Default()})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

const shop = `
requirements:
- namespace: osgi.identity
  filter: (osgi.identity=shop)
resources:
- identity: {name: shop, version: 1.0.0}
  requirements:
  - namespace: osgi.wiring.package
    filter: (osgi.wiring.package=org.cart)
- identity: {name: cart, version: 1.1.0}
  capabilities:
  - namespace: osgi.wiring.package
    attributes:
    - {name: osgi.wiring.package, value: org.cart}
`

func TestResolveOverGRPC(t *testing.T) {
	c := startServer(t)
	doc, err := workspace.Parse([]byte(shop))
	require.NoError(t, err)

	resp, err := c.Resolve(context.Background(), &ResolveRequest{Workspace: doc})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, resolvev1.ResolutionPhaseResolved, resp.Status.Phase)
	assert.Equal(t, []string{"cart@1.1.0", "shop@1.0.0"}, resp.Status.RunOrder)
	assert.Len(t, resp.Status.Wires, 2)
}

func TestResolveFailureCarriesChain(t *testing.T) {
	c := startServer(t)
	doc, err := workspace.Parse([]byte(shop))
	require.NoError(t, err)
	doc.Resources = doc.Resources[:1]

	resp, err := c.Resolve(context.Background(), &ResolveRequest{Workspace: doc})
	require.NoError(t, err)
	assert.Equal(t, resolvev1.ResolutionPhaseFailed, resp.Status.Phase)
	require.Len(t, resp.Status.CausalChain, 2)
	assert.Equal(t, "shop@1.0.0", resp.Status.CausalChain[0].Resource)
	assert.Empty(t, resp.Status.RunOrder)
}

func TestResolveRejectsInvalidWorkspace(t *testing.T) {
	c := startServer(t)

	_, err := c.Resolve(context.Background(), &ResolveRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	doc, err := workspace.Parse([]byte(shop))
	require.NoError(t, err)
	doc.Requirements[0].Filter = "(osgi.identity=shop"
	_, err = c.Resolve(context.Background(), &ResolveRequest{Workspace: doc})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "requirement 0")
}
