package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"renderfarm/internal/config"
	"renderfarm/internal/credentials"
	"renderfarm/internal/form"
	"renderfarm/internal/logging"
	"renderfarm/internal/prepare"
	"renderfarm/internal/rpc"
	"renderfarm/internal/sessions"
	"renderfarm/internal/state"
	"renderfarm/internal/submit"
	"renderfarm/internal/upload"
)

// Runner executes the local renderer.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Core is the single owned state record of a renderfarm process.
type Core struct {
	mu sync.Mutex

	cfg    *config.Config
	logger *slog.Logger
	lock   *flock.Flock
	store  *state.Store
	creds  credentials.Store
	dev    config.DevMode
	now    func() time.Time
	runner Runner

	httpClient  rpc.HTTPDoer
	rpcOptions  []rpc.Option
	client      *rpc.Client
	pipeline    *prepare.Pipeline
	coordinator *submit.Coordinator
	catalogue   *sessions.Catalogue

	record    credentials.Record
	form      form.Form
	report    prepare.Report
	status    state.ServiceStatus
	login     state.Login
	loggedIn  bool
	workspace state.Workspace
}

// Option customizes Open.
type Option func(*Core)

// WithClock overrides the clock used for alert expiry and refresh stamps.
func WithClock(now func() time.Time) Option {
	return func(c *Core) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the HTTP client shared by RPC calls and uploads.
func WithHTTPClient(client rpc.HTTPDoer) Option {
	return func(c *Core) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRPCOptions passes extra options to the RPC client.
func WithRPCOptions(opts ...rpc.Option) Option {
	return func(c *Core) {
		c.rpcOptions = append(c.rpcOptions, opts...)
	}
}

// WithRunner replaces the process runner used by local test renders.
func WithRunner(runner Runner) Option {
	return func(c *Core) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithCredentialStore replaces the credential file store.
func WithCredentialStore(store credentials.Store) Option {
	return func(c *Core) {
		if store != nil {
			c.creds = store
		}
	}
}

// Open enables the core: it locks the state directory against other
// processes, opens the state store and loads the persisted record.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Core, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	c := &Core{
		cfg:       cfg,
		logger:    logging.NewNop(),
		lock:      flock.New(cfg.LockPath()),
		now:       time.Now,
		runner:    execRunner{},
		catalogue: sessions.NewCatalogue(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.creds == nil {
		c.creds = credentials.NewFileStore(cfg.CredentialPath())
	}
	c.logger = logging.NewComponentLogger(c.logger, "core")

	ok, err := c.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !ok {
		return nil, errors.New("another renderfarm instance is already running")
	}

	store, err := state.Open(cfg)
	if err != nil {
		_ = c.lock.Unlock()
		return nil, err
	}
	c.store = store

	c.dev = config.LoadDevMode(cfg.DevModePath())
	rpcOpts := []rpc.Option{
		rpc.WithTimeout(cfg.RequestTimeout()),
		rpc.WithLogger(c.logger),
		rpc.WithVerbose(c.dev.Verbose),
	}
	if c.httpClient != nil {
		rpcOpts = append(rpcOpts, rpc.WithHTTPClient(c.httpClient))
	}
	c.client = rpc.NewClient(cfg.ServiceEndpoints(c.dev), append(rpcOpts, c.rpcOptions...)...)
	c.pipeline = prepare.New(cfg.Paths.AutosaveDir, c.logger)
	uploader := upload.New(c.client.Endpoints().Upload, c.client.HTTPClient(), upload.WithLogger(c.logger))
	c.coordinator = submit.New(c.client, uploader, c.pipeline, c.catalogue,
		submit.WithClock(c.now), submit.WithLogger(c.logger))

	if err := c.load(ctx); err != nil {
		_ = c.store.Close()
		_ = c.lock.Unlock()
		return nil, err
	}
	c.logger.Debug("core opened",
		logging.String("state", store.Path()),
		logging.Bool("developer_mode", c.dev.DeveloperMode),
		logging.Bool("verbose", c.dev.Verbose))
	return c, nil
}

func (c *Core) load(ctx context.Context) error {
	record, err := c.creds.Read()
	if err != nil {
		// The in-memory copy falls back to empty and the failure is shown once.
		record = credentials.Record{}
		c.raise(ctx, fmt.Errorf("read credentials: %w", err))
	}
	c.record = record

	snap, ok, err := c.store.LoadCatalogue(ctx)
	if err != nil {
		return err
	}
	if ok {
		c.catalogue.Restore(snap)
	}

	f, ok, err := c.store.LoadForm(ctx)
	if err != nil {
		return err
	}
	if !ok {
		f = form.Default(c.cfg.Submission)
	}
	c.form = f

	if c.report, err = c.store.LoadReport(ctx); err != nil {
		return err
	}
	if c.status, err = c.store.LoadStatus(ctx); err != nil {
		return err
	}
	if c.login, c.loggedIn, err = c.store.LoadLogin(ctx); err != nil {
		return err
	}
	if c.workspace, err = c.store.LoadWorkspace(ctx); err != nil {
		return err
	}
	return nil
}

// Close persists the record and releases the state directory.
func (c *Core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		return nil
	}
	err := c.persist(context.Background())
	if closeErr := c.store.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	c.store = nil
	if unlockErr := c.lock.Unlock(); unlockErr != nil {
		err = errors.Join(err, fmt.Errorf("release state lock: %w", unlockErr))
	}
	return err
}

func (c *Core) persist(ctx context.Context) error {
	var errs []error
	errs = append(errs,
		c.store.SaveCatalogue(ctx, c.catalogue.Snapshot()),
		c.store.SaveForm(ctx, c.form),
		c.store.SaveReport(ctx, c.report),
		c.store.SaveStatus(ctx, c.status),
		c.store.SaveWorkspace(ctx, c.workspace),
	)
	if c.loggedIn {
		errs = append(errs, c.store.SaveLogin(ctx, c.login))
	} else {
		errs = append(errs, c.store.ClearLogin(ctx))
	}
	return errors.Join(errs...)
}

// Config returns the configuration the core was opened with.
func (c *Core) Config() *config.Config {
	return c.cfg
}

// Client returns the RPC client.
func (c *Core) Client() *rpc.Client {
	return c.client
}
