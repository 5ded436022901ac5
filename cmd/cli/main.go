package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/finledger/internal/adapter/http/dto"
	"github.com/iho/finledger/internal/adapter/http/middleware"
	"github.com/iho/finledger/internal/infrastructure/auth"
	"github.com/iho/finledger/internal/infrastructure/logger"
	"github.com/iho/finledger/internal/infrastructure/postgres"
)

// errUnreconciled makes reconcile exit non-zero when discrepancies are found.
var errUnreconciled = errors.New("ledger has unreconciled accounts")

// migration runners, swapped in tests
var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
)

type options struct {
	baseURL   string
	companyID string
	actor     string
	token     string
	timeout   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "finledger-cli",
		Short:         "FinLedger CLI tool",
		Long:          `A command line interface for maintaining FinLedger balances and schema.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("FINLEDGER_URL", "http://localhost:8080"), "Base URL of the FinLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.companyID, "company", os.Getenv("FINLEDGER_COMPANY"), "Company the command acts on")
	rootCmd.PersistentFlags().StringVar(&opts.actor, "actor", envOr("USER", "cli"), "User recorded on writes")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("FINLEDGER_TOKEN"), "Bearer token sent to the API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	rootCmd.AddCommand(balancesCmd(opts), reconcileCmd(opts), migrateCmd(), tokenCmd(opts))

	return rootCmd
}

func balancesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Balance maintenance",
	}

	var accountID string
	recompute := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute cached balances and running-balance snapshots",
		Long: `Recompute rewrites the cached balance and the running-balance chain of one
account (--account) or of every account of the company.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}

			if accountID != "" {
				var chain dto.ChainRecomputeResponse
				if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/accounts/"+accountID+"/chain/recompute", &chain); err != nil {
					return err
				}
				var account dto.AccountResponse
				if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/accounts/"+accountID+"/balance/recompute", &account); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tbalance=%s\tsnapshots_rewritten=%d\n",
					account.ID, account.CurrentBalance, chain.SnapshotsRewritten)
				return nil
			}

			var resp struct {
				Results []dto.RecomputeResultResponse `json:"results"`
			}
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/balances/recompute", &resp); err != nil {
				return err
			}

			changed := 0
			for _, r := range resp.Results {
				marker := ""
				if !r.PreviousBalance.Equal(r.CurrentBalance) || r.SnapshotsRewritten > 0 {
					marker = "\tREPAIRED"
					changed++
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s -> %s\tsnapshots_rewritten=%d%s\n",
					r.AccountID, r.PreviousBalance, r.CurrentBalance, r.SnapshotsRewritten, marker)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d accounts, %d repaired\n", len(resp.Results), changed)
			return nil
		},
	}
	recompute.Flags().StringVar(&accountID, "account", "", "Only recompute this account")

	cmd.AddCommand(recompute)
	return cmd
}

func reconcileCmd(opts *options) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Verify cached balances and snapshot chains without repairing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient(opts)
			if err != nil {
				return err
			}

			if accountID != "" {
				var result dto.ReconciliationResponse
				if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/accounts/"+accountID+"/reconciliation", &result); err != nil {
					return err
				}
				printReconciliation(cmd.OutOrStdout(), &result)
				if !result.IsReconciled {
					return errUnreconciled
				}
				return nil
			}

			var report dto.ReconciliationReportResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/reconciliation", &report); err != nil {
				return err
			}

			for _, d := range report.Discrepancies {
				printReconciliation(cmd.OutOrStdout(), d)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d/%d accounts reconciled\n", report.ReconciledAccounts, report.TotalAccounts)
			if len(report.Discrepancies) > 0 {
				return errUnreconciled
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account", "", "Only reconcile this account")

	return cmd
}

func printReconciliation(w io.Writer, r *dto.ReconciliationResponse) {
	status := "OK"
	if !r.IsReconciled {
		status = "MISMATCH"
	}
	fmt.Fprintf(w, "%s\t%s\trecorded=%s\tcalculated=%s\tdifference=%s\tchain_breaks=%d\n",
		r.AccountID, status, r.RecordedBalance, r.CalculatedBalance, r.Difference, len(r.ChainBreaks))
}

func migrateCmd() *cobra.Command {
	var (
		databaseURL string
		path        string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	cmd.PersistentFlags().StringVar(&path, "path", envOr("MIGRATIONS_PATH", "migrations"), "Migrations directory or source URL")

	run := func(fn *func(string, string, zerolog.Logger) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			log := logger.New(logger.Config{Level: "info", Format: "console", Output: cmd.ErrOrStderr()})
			return (*fn)(databaseURL, path, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", RunE: run(&migrateUp)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(&migrateDown)},
	)

	return cmd
}

func tokenCmd(opts *options) *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for --company and --actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewTokenManager(secret, ttl).Generate(opts.companyID, opts.actor)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret shared with the server")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

type apiClient struct {
	http      *http.Client
	baseURL   string
	companyID string
	actor     string
	token     string
}

func newAPIClient(opts *options) (*apiClient, error) {
	if strings.TrimSpace(opts.companyID) == "" {
		return nil, errors.New("--company or FINLEDGER_COMPANY is required")
	}

	return &apiClient{
		http:      &http.Client{Timeout: opts.timeout},
		baseURL:   strings.TrimRight(opts.baseURL, "/"),
		companyID: opts.companyID,
		actor:     opts.actor,
		token:     opts.token,
	}, nil
}

func (c *apiClient) do(ctx context.Context, method, path string, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set(middleware.CompanyIDHeader, c.companyID)
	if c.actor != "" {
		req.Header.Set(middleware.ActorHeader, c.actor)
	}
	if c.token != "" {
		req.Header.Set(middleware.AuthorizationHeader, "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
