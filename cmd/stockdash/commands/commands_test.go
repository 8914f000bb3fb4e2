package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/internal/mockapi"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/marshallshelly/stockdash/pkg/report"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setup points the commands at a seeded backend and a file cache in a temp dir.
func setup(t *testing.T) string {
	t.Helper()
	log, _ := test.NewNullLogger()
	srv := mockapi.New(mockapi.Options{JWTSecret: "test-secret", Logger: log})
	require.NoError(t, srv.SeedDemo())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	t.Setenv("STOCKDASH_API_URL", ts.URL)
	t.Setenv("STOCKDASH_CACHE", "file")
	t.Setenv("STOCKDASH_CACHE_FILE", filepath.Join(dir, "cache.json"))
	t.Setenv("STOCKDASH_LOG_LEVEL", "error")
	return dir
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Value.Type() != "stringSlice" {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	prevOut := output.Stdout
	output.Stdout = &buf
	stdin = strings.NewReader(input)
	stdinReader = nil
	t.Cleanup(func() { output.Stdout = prevOut })

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func login(t *testing.T) {
	t.Helper()
	out, err := run(t, "", "login", "--email", "admin@example.com", "--password", "admin123", "--role", "admin")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as admin (admin)")
}

func TestLoginRoleMismatch(t *testing.T) {
	setup(t)

	out, err := run(t, "", "login", "--email", "admin@example.com", "--password", "admin123")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "log in using the admin tab")

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLoginPromptsForPassword(t *testing.T) {
	setup(t)

	out, err := run(t, "user123\n", "login", "--email", "user@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Password:")
	assert.Contains(t, out, "Logged in as user (user)")
}

func TestProductsListJSON(t *testing.T) {
	setup(t)
	login(t)

	out, err := run(t, "", "products", "list", "--status", "low-stock", "--json")
	require.NoError(t, err)

	var page struct {
		Rows    []model.Product
		Matched int
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 3, page.Matched)
	for _, p := range page.Rows {
		assert.True(t, p.IsLowStock(), p.SKU)
	}
}

func TestProductsDeleteConfirmation(t *testing.T) {
	setup(t)
	login(t)

	out, err := run(t, "n\n", "products", "delete", "TL-001")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	out, err = run(t, "", "products", "delete", "TL-001", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Product deleted successfully")

	out, err = run(t, "", "products", "list", "--search", "hammer")
	require.NoError(t, err)
	assert.Contains(t, out, "No products found")
}

func TestProductsRequireLogin(t *testing.T) {
	setup(t)

	_, err := run(t, "", "products", "list")
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}

func TestReportCSV(t *testing.T) {
	dir := setup(t)
	login(t)

	out := filepath.Join(dir, "exports")
	_, err := run(t, "", "report", "--format", "csv", "--kind", "products", "--out", out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, report.Filename("Products", "csv", time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"TL-001"`)
}

func TestDashboardThemeIsRemembered(t *testing.T) {
	setup(t)
	resetFlags(rootCmd)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a, err := newApp(ctx)
	require.NoError(t, err)
	defer a.close()

	theme, err := resolveTheme(ctx, a.cache, "")
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)

	_, err = resolveTheme(ctx, a.cache, "light")
	require.NoError(t, err)
	theme, err = resolveTheme(ctx, a.cache, "")
	require.NoError(t, err)
	assert.Equal(t, "light", theme)

	_, err = resolveTheme(ctx, a.cache, "neon")
	assert.Error(t, err)
}

func TestLogout(t *testing.T) {
	setup(t)
	login(t)

	out, err := run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestUsersDeleteSelfLogsOut(t *testing.T) {
	setup(t)
	login(t)

	out, err := run(t, "", "users", "delete", "admin", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "User deleted successfully")
	assert.Contains(t, out, "You have been logged out")

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")

	_, err = run(t, "", "users", "list")
	assert.ErrorIs(t, err, apperr.ErrNotAuthenticated)
}
