package commands

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tempus-app/tempus/internal/config"
	"github.com/tempus-app/tempus/internal/logger"
	"github.com/tempus-app/tempus/internal/mockapi"
)

// NewMockServerCmd serves the in-memory API for local development
func NewMockServerCmd() *cobra.Command {
	var (
		port      string
		token     string
		userID    string
		origins   []string
		rateLimit string
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory task API for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.New(cfg.LogFormat, cfg.DebugMode)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync(log) }()

			if !cmd.Flags().Changed("port") {
				port = cfg.MockAPIPort
			}

			api := mockapi.New(log.Named("mockapi"))
			api.AddToken(token, userID)
			api.EnableCORS(origins)

			if rateLimit != "" {
				var client *redis.Client
				if cfg.RedisURL != "" {
					opts, err := redis.ParseURL(cfg.RedisURL)
					if err != nil {
						return fmt.Errorf("failed to parse Redis URL: %w", err)
					}
					client = redis.NewClient(opts)
					defer func() { _ = client.Close() }()
				}
				if err := api.EnableRateLimit(rateLimit, client); err != nil {
					return err
				}
			}

			addr := ":" + port
			fmt.Fprintf(cmd.OutOrStdout(), "Mock API on http://localhost%s (token %q)\n", addr, token)
			log.Info("mock_server_starting", zap.String("addr", addr))
			return api.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8089", "Port to listen on, defaults to MOCK_API_PORT")
	cmd.Flags().StringVar(&token, "token", "dev-token", "Bearer token the server accepts")
	cmd.Flags().StringVar(&userID, "user", "dev-user", "User id the token belongs to")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Browser origin allowed to call the API, may be repeated")
	cmd.Flags().StringVar(&rateLimit, "rate-limit", "", "Per-client rate such as 100-M; counters use REDIS_URL when set")
	return cmd
}
