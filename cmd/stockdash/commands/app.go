package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/cache"
	"github.com/marshallshelly/stockdash/pkg/config"
	"github.com/marshallshelly/stockdash/pkg/session"
	"github.com/marshallshelly/stockdash/pkg/store"
	"github.com/marshallshelly/stockdash/pkg/transport"
	"github.com/sirupsen/logrus"
)

// app is the page-level controller shared by the commands: one session, one
// transport and one store of each kind.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	cache  cache.Cache
	client *transport.Client

	session      *session.State
	products     *store.ProductStore
	transactions *store.TransactionStore
	lowStock     *store.LowStockStore
	users        *store.UserStore
	alerts       *store.AlertStore
	stats        *store.DashboardStore

	closers []func() error
}

// stdin is read by prompts. Tests replace it.
var stdin io.Reader = os.Stdin

func loadConfig() (config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return cfg, err
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if cacheBackend != "" {
		cfg.Cache.Backend = strings.ToLower(cacheBackend)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, cfg.Validate()
}

func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheRedis:
		return cache.OpenRedis(ctx, cache.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	case config.CacheMemory:
		return cache.NewMemory(), nil
	default:
		return cache.OpenFile(cfg.File)
	}
}

// newApp loads the configuration, opens the cache and restores any saved
// session.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	out, closeLog, err := config.OpenLogOutput(cfg.Log)
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg.Log, out)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	a := &app{cfg: cfg, log: log, closers: []func() error{closeLog}}

	c, err := openCache(ctx, cfg.Cache)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	a.cache = c
	a.closers = append([]func() error{c.Close}, a.closers...)

	client, err := transport.New(cfg.APIURL,
		transport.WithTimeout(cfg.Timeout),
		transport.WithTokenSource(transport.CacheTokenSource{Cache: c}),
		transport.WithLogger(log),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = client

	a.session = session.New(client, c, log)
	a.products = store.NewProductStore(client, a.session, log)
	a.transactions = store.NewTransactionStore(client, a.session, a.products, log)
	a.lowStock = store.NewLowStockStore(client, log)
	a.users = store.NewUserStore(client, a.session, c, log)
	a.alerts = store.NewAlertStore(client, a.session, c, log)
	a.stats = store.NewDashboardStore(client, log)

	if _, err := a.session.Restore(ctx); err != nil {
		config.LogError(log, "commands", "newApp", "restore session", nil, err)
	}
	return a, nil
}

func (a *app) close() {
	for _, fn := range a.closers {
		_ = fn()
	}
}

// requireLogin fails when no session is active.
func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("%w (run stockdash login)", apperr.ErrNotAuthenticated)
	}
	return nil
}

// withApp runs fn with a fully wired app and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

// errReported is returned once a failure has already been printed.
var errReported = errors.New("command failed")

// fail prints the user-facing text of err. A change kept in the local cache
// is a warning, not a failure.
func fail(err error, fallback string) error {
	msg := apperr.Message(err, fallback)
	var local *apperr.LocalFallbackError
	if errors.As(err, &local) {
		output.Warning("%s", msg)
		return nil
	}
	output.Error("%s", msg)
	return errReported
}

// confirm asks a y/N question unless --yes was given.
func confirm(prompt string) bool {
	if assumeYes {
		return true
	}
	fmt.Fprintf(output.Stdout, "%s [y/N]: ", prompt)
	answer := readLine()
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

var stdinReader *bufio.Reader

func readLine() string {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(stdin)
	}
	line, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(line)
}

// prompt asks for a value when it was not given as a flag.
func prompt(label, value string) string {
	if value != "" {
		return value
	}
	fmt.Fprintf(output.Stdout, "%s: ", label)
	return readLine()
}
