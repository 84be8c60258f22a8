package core

import (
	"context"
	"errors"
	"strings"

	"renderfarm/internal/credentials"
	"renderfarm/internal/logging"
	"renderfarm/internal/rpc"
	"renderfarm/internal/services"
	"renderfarm/internal/sessions"
	"renderfarm/internal/state"
)

func (c *Core) doLogin(ctx context.Context, p LoginParams) error {
	logger := logging.WithContext(ctx, c.logger)
	if user := strings.TrimSpace(p.User); user != "" && p.Password != "" {
		c.record = credentials.Record{User: user, Hash: credentials.HashPassword(p.Password, user)}
		if err := c.creds.Write(c.record); err != nil {
			// Logging in still works from the in-memory copy.
			marker, msg := services.ErrConfiguration, "store credentials"
			if errors.Is(err, credentials.ErrUnstorable) {
				marker, msg = services.ErrInfoMissing, user+" cannot be remembered; log in again next time"
			}
			c.raise(ctx, services.Wrap(marker, "core", "login", msg, err))
		}
	}

	creds, err := c.client.Login(ctx, c.record.User, c.record.Hash)
	if err != nil {
		return err
	}
	c.remember(creds)
	// A new login starts from an empty catalogue until the next refresh.
	c.catalogue.Invalidate()
	if err := c.store.SaveCatalogue(ctx, c.catalogue.Snapshot()); err != nil {
		return err
	}
	c.settle(ctx, services.KindAuthentication, services.KindQuery)
	logger.Info("logged in",
		logging.String("user", c.record.User),
		logging.Int64("user_id", creds.UserID))
	return nil
}

func (c *Core) doLogout(ctx context.Context) error {
	user := c.record.User
	c.forgetCredentials(ctx)
	c.catalogue.Invalidate()
	if err := c.store.SaveCatalogue(ctx, c.catalogue.Snapshot()); err != nil {
		return err
	}
	c.settle(ctx, services.KindAuthentication, services.KindQuery, services.KindCancel)
	logging.WithContext(ctx, c.logger).Info("logged out", logging.String("user", user))
	return nil
}

// remember stores a fresh login.
func (c *Core) remember(creds rpc.Credentials) {
	c.login = state.Login{
		User:       c.record.User,
		UserID:     creds.UserID,
		Key:        creds.Key,
		LoggedInAt: c.now(),
	}
	c.loggedIn = true
}

// ensureLogin returns the farm user id, logging in with the stored
// credentials when no login is recorded.
func (c *Core) ensureLogin(ctx context.Context) (int64, error) {
	if c.loggedIn && c.login.UserID != 0 && c.login.User == c.record.User {
		return c.login.UserID, nil
	}
	creds, err := c.client.Login(ctx, c.record.User, c.record.Hash)
	if err != nil {
		return 0, err
	}
	c.remember(creds)
	return creds.UserID, nil
}

func (c *Core) doRefresh(ctx context.Context) error {
	userID, err := c.ensureLogin(ctx)
	if err != nil {
		return err
	}
	return c.refresh(ctx, userID)
}

func (c *Core) refresh(ctx context.Context, userID int64) error {
	err := c.catalogue.Refresh(ctx, c.client, userID, c.now())
	if saveErr := c.store.SaveCatalogue(ctx, c.catalogue.Snapshot()); saveErr != nil && err == nil {
		err = saveErr
	}
	if err != nil {
		return err
	}
	c.settle(ctx, services.KindQuery)
	logging.WithContext(ctx, c.logger).Info("sessions refreshed", logging.Int("sessions", c.catalogue.Len()))
	return nil
}

func (c *Core) selectView(ctx context.Context, view sessions.View) error {
	c.catalogue.SetView(view)
	return c.store.SaveCatalogue(ctx, c.catalogue.Snapshot())
}

// ShowAll clears the stage filter of the display.
func (c *Core) ShowAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectView(ctx, sessions.ViewAll)
}

// SelectIndex moves the selection within the current display and returns
// the clamped index.
func (c *Core) SelectIndex(ctx context.Context, index int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected := c.catalogue.Select(index)
	if err := c.store.SaveCatalogue(ctx, c.catalogue.Snapshot()); err != nil {
		return selected, err
	}
	return selected, nil
}

func (c *Core) doCancel(ctx context.Context) error {
	target, ok := c.catalogue.Selected()
	if !ok {
		return services.Wrap(services.ErrCancel, "core", "cancel", "no session selected", nil)
	}
	ctx = services.WithSessionID(ctx, target.ID)
	logger := logging.WithContext(ctx, c.logger)

	creds, err := c.client.CancelWithLogin(ctx, c.record.User, c.record.Hash, target.ID)
	if err != nil {
		return err
	}
	c.remember(creds)
	logger.Info("session cancelled", logging.String("title", target.Title))
	c.settle(ctx, services.KindCancel)
	return c.refresh(ctx, creds.UserID)
}

func (c *Core) doCheckStatus(ctx context.Context) error {
	status, err := c.client.Motd(ctx)
	c.status.CheckedAt = c.now()
	if err != nil {
		c.status.Error = err.Error()
		if saveErr := c.store.SaveStatus(ctx, c.status); saveErr != nil {
			logging.WithContext(ctx, c.logger).Warn("save status failed", logging.Error(saveErr))
		}
		return err
	}
	c.status.Accepting = status.Accepting
	c.status.Motd = status.Motd
	c.status.Error = ""
	return c.store.SaveStatus(ctx, c.status)
}
