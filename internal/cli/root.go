// Package cli implements the odatasql command.
package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	odatasql "github.com/nlstn/go-odata-sql"
	"github.com/nlstn/go-odata-sql/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	ModelPath  string
	Product    string
	Format     string // "json" | "text"
	Verbose    bool

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the odatasql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "odatasql",
		Short: "Translate OData v2 read requests into SQL",
		Long: `Translate OData v2 read requests into parameterized SQL.

The entity model is read from a YAML or JSON document. Settings come from
odatasql.toml (or --config), ODATASQL_* environment variables and flags,
in increasing order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "configuration file (default ./"+config.DefaultConfigFile+" if present)")
	cmd.PersistentFlags().StringVarP(&opts.ModelPath, "model", "m", "", "model document, overrides model.path")
	cmd.PersistentFlags().StringVar(&opts.Product, "product", "", "database product, overrides database.product")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (o *RootOptions) load() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load configuration", err)
	}
	if o.ModelPath != "" {
		cfg.Model.Path = o.ModelPath
	}
	if o.Product != "" {
		cfg.Database.Product = o.Product
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.cfg = cfg
	return nil
}

// translator loads the model and creates a translator logging to logOut.
func (o *RootOptions) translator(logOut io.Writer, extra ...odatasql.Option) (*odatasql.Translator, error) {
	if o.cfg.Model.Path == "" {
		return nil, NewExitError(ExitCommandError, "no model document: set --model or model.path")
	}
	catalog, err := odatasql.LoadModel(o.cfg.Model.Path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load model", err)
	}
	opts := append(o.cfg.TranslatorOptions(o.cfg.Logger(logOut)), extra...)
	return odatasql.NewTranslator(catalog, opts...), nil
}

// requestPath joins a resource path and an optional raw query string.
func requestPath(args []string) string {
	if len(args) < 2 {
		return args[0]
	}
	query := strings.TrimPrefix(args[1], "?")
	if query == "" {
		return args[0]
	}
	return args[0] + "?" + query
}
