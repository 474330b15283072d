// Command steamfleetctl launches one or more Steam accounts' Clients and
// waits for them to finish (§8 "Scenario walkthroughs"), grounded on the
// teacher's cmd/ entry point style but rebuilt around spf13/cobra instead
// of flag parsing directly in main, since the teacher's go.mod already
// carried cobra without using it.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/k64z/steamfleet/client"
	"github.com/k64z/steamfleet/login"
	"github.com/k64z/steamfleet/protocol"
	"github.com/k64z/steamfleet/transport"

	_ "github.com/k64z/steamfleet/modules/assetdata"
	_ "github.com/k64z/steamfleet/modules/autoaccept"
	_ "github.com/k64z/steamfleet/modules/badgedata"
	_ "github.com/k64z/steamfleet/modules/cardfarmer"
	_ "github.com/k64z/steamfleet/modules/inventory"
	_ "github.com/k64z/steamfleet/modules/license"
	_ "github.com/k64z/steamfleet/modules/notifications"
	_ "github.com/k64z/steamfleet/modules/packagedata"
	_ "github.com/k64z/steamfleet/modules/playgames"
	_ "github.com/k64z/steamfleet/modules/tradeoffers"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "steamfleetctl",
		Short: "Run one or more Steam accounts against the steamfleet client runtime",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		accounts []string
		dataDir  string
		group    string
		useTCP   bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in and run the given accounts until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccounts(cmd.Context(), accounts, dataDir, group, useTCP, logLevel)
		},
	}

	cmd.Flags().StringSliceVar(&accounts, "account", nil,
		"accountname:password pair, repeatable (falls back to STEAMFLEET_ACCOUNTS env, same syntax, comma-separated)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "./steamfleet-data", "root directory for per-account and per-Steam-account state")
	cmd.Flags().StringVar(&group, "group", "default", "ClientInfo group name these accounts are launched into")
	cmd.Flags().BoolVar(&useTCP, "tcp", false, "use the netfilter TCP transport instead of WebSocket")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn, or error")

	return cmd
}

func runAccounts(ctx context.Context, accounts []string, dataDir, group string, useTCP bool, logLevel string) error {
	if len(accounts) == 0 {
		accounts = strings.Split(os.Getenv("STEAMFLEET_ACCOUNTS"), ",")
	}
	accounts = nonEmpty(accounts)
	if len(accounts) == 0 {
		return fmt.Errorf("steamfleetctl: no accounts given (--account or STEAMFLEET_ACCOUNTS)")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(logLevel)}))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	discoveryClient := &http.Client{Timeout: 15 * time.Second}
	endpoint := transport.NewDiscoveryProvider(discoveryClient, useTCP)
	registry := client.NewClientInfo()

	for _, spec := range accounts {
		info, err := accountInfo(spec, dataDir)
		if err != nil {
			return err
		}

		opts := []client.Option{
			client.WithLoginOption(login.WithCodeProvider(promptForCode)),
			client.WithLoginOption(login.WithMachineName("steamfleetctl")),
		}

		if err := registry.Launch(ctx, endpoint, info, group, dataDir, logger, opts...); err != nil {
			return fmt.Errorf("steamfleetctl: launch %s: %w", info.AccountName, err)
		}
		logger.Info("steamfleetctl: launched", "account", info.AccountName, "group", group)
	}

	return registry.WaitAll(ctx, group)
}

// promptForCode asks the operator for a Steam Guard code on stdin; it is the
// CLI's CodeProvider for EmailCode and DeviceCode confirmations (§4.10
// "ConfirmationSubmit").
func promptForCode(ctx context.Context, guardType protocol.EAuthSessionGuardType) (string, error) {
	fmt.Fprintf(os.Stderr, "enter Steam Guard code (type %d): ", guardType)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("steamfleetctl: read code: %w", err)
		}
		return "", fmt.Errorf("steamfleetctl: no code entered")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func accountInfo(spec, dataDir string) (client.AccountInfo, error) {
	name, password, ok := strings.Cut(spec, ":")
	if !ok {
		return client.AccountInfo{}, fmt.Errorf("steamfleetctl: malformed --account %q, want accountname:password", spec)
	}
	return client.AccountInfo{
		AccountName: name,
		Password:    password,
		DataDir:     dataDir,
	}, nil
}

func nonEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
