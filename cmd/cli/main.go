package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/bizledger/internal/domain"
	"github.com/iho/bizledger/internal/infrastructure/config"
	"github.com/iho/bizledger/internal/infrastructure/logger"
	"github.com/iho/bizledger/internal/infrastructure/postgres"
)

func main() {
	c := newCLI(os.Stdout, connectPostgres)
	defer c.close()

	if err := c.root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		c.close()
		os.Exit(1)
	}
}

// cli holds the state shared by every command.
type cli struct {
	out     io.Writer
	connect connectFunc

	cfg     *config.Config
	logger  zerolog.Logger
	svc     *services
	release func()

	actorID    string
	actorName  string
	roles      []string
	superuser  bool
	hourlyRate string
}

func newCLI(out io.Writer, connect connectFunc) *cli {
	return &cli{out: out, connect: connect, logger: zerolog.Nop()}
}

func (c *cli) root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bizledger",
		Short:         "Small-business ledger administration",
		Long:          `Records income, expenses and payroll, manages the catalog and reports the balance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			c.logger = logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.actorID, "actor-id", "", "ID of the acting user")
	flags.StringVar(&c.actorName, "actor-name", "", "Display name of the acting user")
	flags.StringSliceVar(&c.roles, "role", nil, "Role of the acting user (administrator, accountant, warehouse_clerk)")
	flags.BoolVar(&c.superuser, "superuser", false, "Act as a superuser")
	flags.StringVar(&c.hourlyRate, "actor-rate", "", "Hourly rate of the acting user, used by quotes without a profile")

	rootCmd.AddCommand(
		c.migrateCmd(),
		c.catalogCmd(),
		c.incomeCmd(),
		c.expenseCmd(),
		c.recordCmd(),
		c.payrollCmd(),
		c.quoteCmd(),
		c.balanceCmd(),
		c.auditCmd(),
		c.profileCmd(),
	)

	return rootCmd
}

// services connects on first use so that commands such as migrate never open a pool.
func (c *cli) services(ctx context.Context) (*services, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, release, err := c.connect(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, err
	}
	c.svc, c.release = svc, release
	return svc, nil
}

func (c *cli) close() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

func (c *cli) actor() (domain.Actor, error) {
	actor := domain.Actor{
		ID:          strings.TrimSpace(c.actorID),
		DisplayName: strings.TrimSpace(c.actorName),
		Superuser:   c.superuser,
	}
	for _, r := range c.roles {
		role := domain.Role(strings.TrimSpace(r))
		if !role.IsValid() {
			return domain.Actor{}, fmt.Errorf("unknown role %q", r)
		}
		actor.Roles = append(actor.Roles, role)
	}
	if c.hourlyRate != "" {
		rate, err := parseDecimal("actor-rate", c.hourlyRate)
		if err != nil {
			return domain.Actor{}, err
		}
		actor.HourlyRate = rate
	}
	return actor, nil
}

// run resolves the actor and services, then calls fn and prints its result as JSON.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, svc *services, actor domain.Actor) (any, error)) error {
	actor, err := c.actor()
	if err != nil {
		return err
	}
	svc, err := c.services(cmd.Context())
	if err != nil {
		return err
	}
	result, err := fn(cmd.Context(), svc, actor)
	if err != nil {
		return err
	}
	return printJSON(c.out, result)
}

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrations(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return postgres.RunMigrationsDown(c.cfg.DatabaseURL, c.cfg.MigrationsPath, c.logger)
			},
		},
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDecimal(flag, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: %q is not a number", flag, value)
	}
	return d, nil
}

// parseAsOf accepts RFC 3339 or a plain date, which means the end of that day in UTC.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of: %q is neither RFC 3339 nor YYYY-MM-DD", value)
	}
	return day.Add(24*time.Hour - time.Second), nil
}

func parseQuantity(value string) (int64, error) {
	qty, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("quantity %q is not a whole number", value)
	}
	return qty, nil
}

func subjectType(arg string) (domain.SubjectType, error) {
	switch t := domain.SubjectType(arg); t {
	case domain.SubjectIncome, domain.SubjectExpense:
		return t, nil
	default:
		return "", fmt.Errorf("record type must be income or expense, got %q", arg)
	}
}
