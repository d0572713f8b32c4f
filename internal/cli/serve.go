package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	odatasql "github.com/nlstn/go-odata-sql"
	"github.com/nlstn/go-odata-sql/internal/observability"
	"github.com/nlstn/go-odata-sql/internal/version"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve translated statements over HTTP",
		Long: `Serve GET /explain/<path>?<query>, which answers with the statement a
request translates into. With a database configured, GET /query/<path>?<query>
runs the request and answers in the OData v2 JSON format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = rootOpts.cfg.Server.Addr
			}
			return runServe(rootOpts, cmd, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func runServe(opts *RootOptions, cmd *cobra.Command, addr string) error {
	handler, logger, err := opts.newExplainServer(cmd)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("Serving", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (o *RootOptions) newExplainServer(cmd *cobra.Command) (http.Handler, *slog.Logger, error) {
	logOut := cmd.ErrOrStderr()
	var extra []odatasql.Option
	if o.cfg.Server.ServerTiming {
		extra = append(extra, odatasql.WithObservability(odatasql.ObservabilityConfig{EnableServerTiming: true}))
	}

	s := &explainServer{logger: o.cfg.Logger(logOut)}
	if o.cfg.Database.Driver != "" {
		runner, err := o.runner(logOut, extra...)
		if err != nil {
			return nil, nil, err
		}
		s.runner = runner
		s.translator = runner.Translator()
	} else {
		tr, err := o.translator(logOut, extra...)
		if err != nil {
			return nil, nil, err
		}
		s.translator = tr
	}
	return s.routes(), s.logger, nil
}

// explainServer answers /explain with statements and, when it has a
// runner, /query with rows.
type explainServer struct {
	translator *odatasql.Translator
	runner     *odatasql.Runner
	logger     *slog.Logger
}

func (s *explainServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /explain/{path...}", s.explain)
	mux.HandleFunc("GET /query/{path...}", s.query)
	return s.translator.Middleware()(s.negotiate(mux))
}

// negotiate rejects requests the client's MaxDataServiceVersion cannot
// express and sets the DataServiceVersion of the response.
func (s *explainServer) negotiate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		negotiated, err := version.Negotiate(r.Header.Get(version.HeaderMaxDataServiceVersion))
		if err != nil {
			s.writeError(w, odatasql.NewInterceptorError(http.StatusBadRequest, err.Error()))
			return
		}
		required := version.Required(r.URL.Path, r.URL.Query())
		if !required.LessThanOrEqual(negotiated) {
			s.writeError(w, odatasql.NewInterceptorError(http.StatusBadRequest,
				fmt.Sprintf("The request requires %s %s", version.HeaderDataServiceVersion, required)))
			return
		}
		w.Header().Set(version.HeaderDataServiceVersion, required.String())
		next.ServeHTTP(w, r)
	})
}

func (s *explainServer) explain(w http.ResponseWriter, r *http.Request) {
	stmt, err := s.translator.Translate(r.Context(), r.PathValue("path"), r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newStatementOutput(stmt))
}

func (s *explainServer) query(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, odatasql.NewInterceptorError(http.StatusServiceUnavailable, "No database configured"))
		return
	}
	res, err := s.runner.Read(r.Context(), r.PathValue("path"), r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch res.Operation {
	case odatasql.OpCount:
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strconv.FormatInt(*res.Count, 10))) //nolint:errcheck
	case odatasql.OpReadEntity:
		if len(res.Rows) == 0 {
			s.writeError(w, odatasql.NewInterceptorError(http.StatusNotFound, "Resource not found"))
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"d": res.Rows[0]})
	default:
		body := map[string]any{"results": nonNil(res.Rows)}
		if res.Count != nil {
			body["__count"] = strconv.FormatInt(*res.Count, 10)
		}
		if res.NextLink != "" {
			body["__next"] = res.NextLink
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"d": body})
	}
}

func nonNil(rows []map[string]any) []map[string]any {
	if rows == nil {
		return []map[string]any{}
	}
	return rows
}

// writeError answers in the OData v2 JSON error format.
func (s *explainServer) writeError(w http.ResponseWriter, err error) {
	status := odatasql.MapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", observability.LogFieldError, err)
	}
	body := map[string]any{
		"error": map[string]any{
			"code": errorCode(err),
			"message": map[string]string{
				"lang":  "en-US",
				"value": err.Error(),
			},
		},
	}
	s.writeJSON(w, status, body)
}

func (s *explainServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", observability.LogFieldError, err)
	}
}
