package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nlstn/go-odata-sql/internal/testmodel"
)

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, testmodel.Document(), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "odatasql", cmd.Use)

	for _, name := range []string{"translate", "exec", "serve"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
	assert.Equal(t, "m", cmd.PersistentFlags().Lookup("model").Shorthand)
}

func TestTranslateGolden(t *testing.T) {
	model := writeModel(t)
	tests := []struct {
		name string
		args []string
	}{
		{
			name: "translate_text",
			args: []string{"translate", "Entities1", "$filter=Status eq 'DONE'&$top=5"},
		},
		{
			name: "translate_derby_json",
			args: []string{"translate", "Entities1?$filter=Status eq 'DONE'&$top=5&$skip=10", "--product", "derby", "--format", "json"},
		},
		{
			name: "translate_count_text",
			args: []string{"translate", "Entities1('g1')/HeaderAttributes/$count"},
		},
		{
			name: "translate_server_paging_json",
			args: []string{"translate", "Entities2", "--format", "json"},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, append(tt.args, "--model", model)...)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestTranslateErrors(t *testing.T) {
	model := writeModel(t)

	out, err := runCommand(t, "translate", "Entities1", "$filter=Unknown eq 1", "--model", model, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var body errorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "BadRequest", body.Error.Code)
	assert.Equal(t, http.StatusBadRequest, body.Error.Status)

	_, err = runCommand(t, "translate", "Entities1")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "missing model")

	_, err = runCommand(t, "translate", "Entities1", "--model", model, "--format", "yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "invalid format")

	_, err = runCommand(t, "translate", "Entities1", "--model", model, "--product", "oracle7")
	assert.Equal(t, ExitCommandError, GetExitCode(err), "invalid product")
}

// seedDatabase creates a sqlite database with three headers and returns a
// configuration file pointing at it.
func seedDatabase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dsn := filepath.Join(dir, "messages.db")

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE MPLHEADER (ID INTEGER PRIMARY KEY, MESSAGEGUID TEXT, STATUS TEXT, SENDER TEXT, RECEIVER TEXT, LOGSTART TIMESTAMP, LOGEND DATETIME)`,
		`CREATE TABLE ITOP_MPLUSERDEFINEDATTRIBUTE (ID INTEGER PRIMARY KEY, HEADER_ID INTEGER, NAME TEXT, VALUE TEXT)`,
		`INSERT INTO MPLHEADER (ID, MESSAGEGUID, STATUS) VALUES (1, 'g1', 'DONE'), (2, 'g2', 'DONE'), (3, 'g3', 'FAILED')`,
		`INSERT INTO ITOP_MPLUSERDEFINEDATTRIBUTE (ID, HEADER_ID, NAME, VALUE) VALUES (10, 1, 'a', 'x')`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	config := `
[database]
product = "sqlite"
driver = "sqlite"
dsn = "` + filepath.ToSlash(dsn) + `"

[model]
path = "` + filepath.ToSlash(writeModel(t)) + `"

[paging]
size = 2

[server]
server_timing = true
`
	path := filepath.Join(dir, "odatasql.toml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return path
}

func TestExec(t *testing.T) {
	cfg := seedDatabase(t)

	out, err := runCommand(t, "exec", "Entities1", "$filter=Status eq 'DONE'", "--config", cfg, "--format", "json")
	require.NoError(t, err)

	var res resultOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "g1", res.Rows[0]["MESSAGEGUID_T0"])
	assert.Equal(t, "Entities1?$filter=Status+eq+%27DONE%27&$skiptoken=2", res.NextLink)

	out, err = runCommand(t, "exec", "Entities1/$count", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "count: 3\n", out)

	out, err = runCommand(t, "exec", "Entities1('g3')", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "MESSAGEGUID_T0")
	assert.Contains(t, out, "FAILED")
}

func TestExecWithoutDatabase(t *testing.T) {
	_, err := runCommand(t, "exec", "Entities1", "--model", writeModel(t))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func newTestServer(t *testing.T, args ...string) http.Handler {
	t.Helper()
	opts := &RootOptions{ConfigPath: "", Format: "text"}
	root := &cobra.Command{}
	root.SetErr(io.Discard)
	for i := 0; i+1 < len(args); i += 2 {
		switch args[i] {
		case "--config":
			opts.ConfigPath = args[i+1]
		case "--model":
			opts.ModelPath = args[i+1]
		}
	}
	require.NoError(t, opts.load())
	handler, _, err := opts.newExplainServer(root)
	require.NoError(t, err)
	return handler
}

func TestServeExplain(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, "--model", writeModel(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/explain/Entities1?$top=3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stmt statementOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stmt))
	assert.True(t, strings.HasSuffix(stmt.SQL, "ORDER BY T0.MESSAGEGUID ASC LIMIT 3"), stmt.SQL)
	assert.Empty(t, stmt.Params)
	assert.Equal(t, "1.0", resp.Header.Get("DataServiceVersion"))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/explain/Entities1?$select=Status", nil)
	require.NoError(t, err)
	req.Header.Set("MaxDataServiceVersion", "1.0")
	old, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer old.Body.Close()
	assert.Equal(t, http.StatusBadRequest, old.StatusCode)

	bad, err := http.Get(srv.URL + "/explain/Entities1?$skiptoken=abc")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, bad.StatusCode)

	noDB, err := http.Get(srv.URL + "/query/Entities1")
	require.NoError(t, err)
	defer noDB.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, noDB.StatusCode)
}

func TestServeQuery(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, "--config", seedDatabase(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/query/Entities1?$inlinecount=allpages")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Server-Timing"), "db")

	var body struct {
		D struct {
			Results []map[string]any `json:"results"`
			Count   string           `json:"__count"`
			Next    string           `json:"__next"`
		} `json:"d"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.D.Results, 2)
	assert.Equal(t, "3", body.D.Count)
	assert.Contains(t, body.D.Next, "$skiptoken=2")

	count, err := http.Get(srv.URL + "/query/Entities1/$count")
	require.NoError(t, err)
	defer count.Body.Close()
	raw, err := io.ReadAll(count.Body)
	require.NoError(t, err)
	assert.Equal(t, "3", string(raw))

	missing, err := http.Get(srv.URL + "/query/Entities1('nope')")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
