package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-reservation/internal/config"
	"github.com/iliyamo/restaurant-reservation/internal/database"
)

type options struct {
	dsn             string
	migrationsPath  string
	migrationsTable string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "migrator",
		Short:         "Apply or roll back the reservation schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "mysql DSN (default: built from DB_* env)")
	cmd.PersistentFlags().StringVar(&opts.migrationsPath, "migrations-path", "migrations", "path to migrations")
	cmd.PersistentFlags().StringVar(&opts.migrationsTable, "migrations-table", "schema_migrations", "name of migrations table")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, opts, (*migrate.Migrate).Up, "migrations applied successfully")
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, opts, (*migrate.Migrate).Down, "migrations downed successfully")
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				m, err := open(opts)
				if err != nil {
					return err
				}
				defer m.Close()
				v, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
				return nil
			},
		},
	)
	return cmd
}

func run(cmd *cobra.Command, opts *options, step func(*migrate.Migrate) error, done string) error {
	m, err := open(opts)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := step(m); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(cmd.OutOrStdout(), "no migrations to apply")
			return nil
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

func open(opts *options) (*migrate.Migrate, error) {
	dsn := opts.dsn
	if dsn == "" {
		dsn = database.DSN(config.LoadDB())
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return migrate.New(
		"file://"+opts.migrationsPath,
		fmt.Sprintf("mysql://%s%smultiStatements=true&x-migrations-table=%s", dsn, sep, opts.migrationsTable),
	)
}
