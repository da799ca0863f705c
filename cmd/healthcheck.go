package cmd

import (
	"context"
	"fmt"
	"time"

	grpcserver "earnquest-bot/grpc"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func newHealthcheckCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Query a running bot's gRPC health service",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := viper.GetString("grpc.addr")
			if addr == "" {
				return fmt.Errorf("grpc.addr is not configured")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			status, err := grpcserver.Check(ctx, addr, grpcserver.ServiceName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.String())
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("bot is %s", status)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "How long to wait for an answer.")
	return cmd
}
