package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	grpc "google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestHealthStatusFollowsServing(t *testing.T) {
	lis := bufconn.Listen(1 << 16)
	srv := NewHealthServer(zaptest.NewLogger(t))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(lis) }()

	dial := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := Check(ctx, "passthrough:///bufnet", ServiceName, dial)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status)

	srv.SetServing(true)
	status, err = Check(ctx, "passthrough:///bufnet", "", dial)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status)

	srv.Stop()
	require.NoError(t, <-done)
}
