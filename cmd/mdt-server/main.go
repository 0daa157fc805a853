package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mdt/mdt/internal/config"
	"github.com/mdt/mdt/internal/domain/mdt"
	"github.com/mdt/mdt/internal/domain/user"
	"github.com/mdt/mdt/internal/platform/auth"
	"github.com/mdt/mdt/internal/platform/db"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "mdt-server",
		Short:        "MDT case tracker API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(caseCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadApp reads the config, connects to the database and wires the
// services. The caller closes the pool.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:             cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		ConnectTimeout:  cfg.DBTimeout,
	})
	if err != nil {
		return nil, err
	}
	return newApp(cfg, pool, newLogger(cfg.Env)), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.pool.Close()
			return a.serve(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.pool.Close()

			count, err := db.NewMigrator(a.pool, db.Migrations()).Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.pool.Close()

			statuses, err := db.NewMigrator(a.pool, db.Migrations()).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd, statuses)
			return nil
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, statuses []db.MigrationStatus) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.pool.Close()

			u, err := a.users.CreateUnchecked(cmd.Context(), user.CreateInput{
				Email:    email,
				Password: password,
				Role:     auth.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d).\n", u.Role, u.Email, u.ID)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Login email")
	createCmd.Flags().String("password", "", "Password (at least 8 characters)")
	createCmd.Flags().String("role", string(auth.RoleUser), "Role: user or admin")

	cmd.AddCommand(createCmd)
	return cmd
}

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Work with MDT cases",
	}

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a case document to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetInt64("id")
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")
			if id <= 0 {
				return fmt.Errorf("--id is required")
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.pool.Close()

			// Operator tooling acts as a system administrator.
			ctx := auth.WithIdentity(cmd.Context(), &auth.Identity{Email: "cli", Role: auth.RoleAdmin})
			doc, err := a.cases.RenderDocument(ctx, id, mdt.Format(strings.ToLower(format)))
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = doc.Filename
			}
			if err := writeDocument(path, doc.Body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes).\n", path, len(doc.Body))
			return nil
		},
	}
	renderCmd.Flags().Int64("id", 0, "Case id")
	renderCmd.Flags().String("format", string(mdt.FormatPDF), "Output format: pdf or html")
	renderCmd.Flags().String("out", "", "Output file (default mdt_case_<id>.<format>)")

	cmd.AddCommand(renderCmd)
	return cmd
}

func writeDocument(path string, body []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
