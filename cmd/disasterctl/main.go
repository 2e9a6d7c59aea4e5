package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	client "github.com/disasterwatch/client"
	"github.com/disasterwatch/client/internal/logger"
)

var (
	apiURL    string
	pushURL   string
	transport string
	user      string
	debug     bool
	jsonLogs  bool
	timeout   time.Duration
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "disasterctl",
		Short:         "Watch and manage disasters reported to the disaster API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitConsole(debug)
			if jsonLogs {
				log.Logger = logger.NewTo(os.Stderr, "disasterctl")
			}
			// A missing .env is normal; the environment may already be set.
			if err := godotenv.Load(); err != nil {
				log.Debug().Err(err).Msg("no .env file loaded")
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "REST base URL (overrides DISASTERWATCH_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&pushURL, "push", "", "Socket.IO URL (overrides DISASTERWATCH_PUSH_URL)")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "Push transport: socketio or mqtt")
	rootCmd.PersistentFlags().StringVarP(&user, "user", "u", "", "Acting user")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Deadline for one-shot commands")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Write logs as JSON instead of console text")

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newSocialCmd())
	rootCmd.AddCommand(newResourcesCmd())
	rootCmd.AddCommand(newUpdatesCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newGeocodeCmd())
	rootCmd.AddCommand(newUsersCmd())

	return rootCmd
}

// newClient builds a client from the environment with flag overrides applied.
func newClient() (*client.Client, error) {
	cfg, err := client.LoadConfig()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if pushURL != "" {
		cfg.PushURL = pushURL
	}
	if transport != "" {
		cfg.PushTransport = transport
	}
	if debug {
		cfg.Debug = true
	}
	opts := []client.Option{client.WithLogger(log.Logger)}
	if user != "" {
		opts = append(opts, client.WithUser(user))
	}
	return client.New(cfg, opts...)
}

// startClient is newClient plus Start; the returned func closes it.
func startClient() (*client.Client, func(), error) {
	c, err := newClient()
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, func() { _ = c.Close() }, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
