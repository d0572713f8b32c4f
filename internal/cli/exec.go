package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	odatasql "github.com/nlstn/go-odata-sql"
	"github.com/nlstn/go-odata-sql/internal/config"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <path> [query]",
		Short: "Run a request against the configured database",
		Long: `Translate an OData read request and run it against the database named by
database.driver and database.dsn. Collections with $expand are read in two
steps so that $top counts entities rather than joined rows.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(rootOpts, cmd, args)
		},
	}
	return cmd
}

func runExec(opts *RootOptions, cmd *cobra.Command, args []string) error {
	f := &formatter{format: opts.Format, w: cmd.OutOrStdout()}

	runner, err := opts.runner(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	res, err := runner.Read(cmd.Context(), requestPath(args), nil)
	if err != nil {
		return f.failure(err)
	}
	return f.result(res)
}

// runner opens the configured database and creates a runner for it.
func (o *RootOptions) runner(logOut io.Writer, extra ...odatasql.Option) (*odatasql.Runner, error) {
	tr, err := o.translator(logOut, extra...)
	if err != nil {
		return nil, err
	}
	db, err := openDB(o.cfg.Database)
	if err != nil {
		return nil, err
	}
	runner, err := odatasql.NewRunner(db, tr)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "create runner", err)
	}
	return runner, nil
}

func openDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, NewExitError(ExitCommandError, "no database: set database.driver and database.dsn")
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("open %s database", cfg.Driver), err)
	}
	return db, nil
}
