package submit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"renderfarm/internal/credentials"
	"renderfarm/internal/form"
	"renderfarm/internal/logging"
	"renderfarm/internal/prepare"
	"renderfarm/internal/rpc"
	"renderfarm/internal/scene"
	"renderfarm/internal/services"
	"renderfarm/internal/sessions"
	"renderfarm/internal/upload"
)

// Client is the part of the RPC client a submission uses.
type Client interface {
	sessions.Fetcher
	Login(ctx context.Context, user, hash string) (rpc.Credentials, error)
	CreateSession(ctx context.Context, userID int64, key string) (rpc.SessionSlot, error)
	SetParam(ctx context.Context, userID int64, key string, sessionID int64, param rpc.Param, value any) (string, error)
	Submit(ctx context.Context, userID int64, key string, sessionID int64) (string, error)
}

// Uploader sends the derived scene file.
type Uploader interface {
	Send(ctx context.Context, req upload.Request) (upload.Result, error)
}

// Preparer turns the working scene into its submission-ready copy.
type Preparer interface {
	Run(ctx context.Context, host scene.Host, f *form.Form) prepare.Result
}

// Outcome describes how far a submission got.
type Outcome struct {
	// Prepared is set once the preparation pipeline has run; Report is
	// meaningful only then.
	Prepared    bool
	Report      prepare.Report
	DerivedPath string
	Credentials rpc.Credentials
	SessionID   int64
	FileID      int64
	Submitted   bool
	// RefreshErr is set when the post-submit catalogue refresh failed; the
	// submission itself still succeeded.
	RefreshErr error
}

// Coordinator runs submissions.
type Coordinator struct {
	client    Client
	uploader  Uploader
	preparer  Preparer
	catalogue *sessions.Catalogue
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes the coordinator.
type Option func(*Coordinator)

// WithClock overrides the clock stamped on catalogue refreshes.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Coordinator. catalogue is refreshed after a successful
// submit and may be nil.
func New(client Client, uploader Uploader, preparer Preparer, catalogue *sessions.Catalogue, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:    client,
		uploader:  uploader,
		preparer:  preparer,
		catalogue: catalogue,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "submit")
	return c
}

// Submit runs one submission of host's scene with f. f is updated with the
// values preparation coerced. Whatever happens, the working scene's engine
// is switched back to the remote engine before Submit returns.
func (c *Coordinator) Submit(ctx context.Context, host scene.Host, f *form.Form, creds credentials.Record) (Outcome, error) {
	var out Outcome
	logger := logging.WithContext(ctx, c.logger)

	defer func() {
		host.Document().Render.Engine = scene.EngineRemote
	}()
	if err := f.Validate(creds); err != nil {
		return out, err
	}

	prepared := c.preparer.Run(ctx, host, f)
	out.Prepared = true
	out.Report = prepared.Report
	out.DerivedPath = prepared.Path
	if prepared.SaveErr != nil {
		return out, fmt.Errorf("prepare scene: %w", prepared.SaveErr)
	}
	if warnErr := prepared.Report.Err(); warnErr != nil {
		logging.WarnWithContext(logger, "scene preparation raised warnings", "preparation_warning",
			logging.Error(warnErr),
			logging.Int("warnings", len(prepared.Report.Warnings())),
			logging.String(logging.FieldImpact, "the session is submitted but may render differently"))
	}

	login, err := c.client.Login(ctx, creds.User, creds.Hash)
	if err != nil {
		return out, err
	}
	out.Credentials = login

	slot, err := c.client.CreateSession(ctx, login.UserID, login.Key)
	if err != nil {
		return out, err
	}
	out.SessionID = slot.ID
	key := slot.Key
	ctx = services.WithSessionID(ctx, slot.ID)
	logger = logging.WithContext(ctx, c.logger)
	logger.Info("session slot acquired")

	sent, err := c.uploader.Send(ctx, upload.Request{
		UserID:    login.UserID,
		Key:       key,
		SessionID: slot.ID,
		Path:      prepared.Path,
	})
	if err != nil {
		return out, err
	}
	out.FileID = sent.FileID
	key = sent.Key

	for _, step := range Plan(*f, sent.FileID) {
		key, err = c.client.SetParam(ctx, login.UserID, key, slot.ID, step.Param, step.Value)
		if err != nil {
			logging.ErrorWithContext(logger, "session configuration failed", "session_configure_failed",
				logging.String("param", string(step.Param)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the session stays unsubmitted and is reused next time"))
			return out, err
		}
	}

	if key, err = c.client.Submit(ctx, login.UserID, key, slot.ID); err != nil {
		return out, err
	}
	out.Submitted = true
	out.Credentials.Key = key
	logger.Info("session submitted", logging.Int64("file_id", sent.FileID))

	if c.catalogue != nil {
		if err := c.catalogue.Refresh(ctx, c.client, login.UserID, c.now()); err != nil {
			out.RefreshErr = err
			logging.WarnWithContext(logger, "catalogue refresh after submit failed", "refresh_failed", logging.Error(err))
		}
	}
	return out, nil
}
