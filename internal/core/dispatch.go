package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"renderfarm/internal/logging"
	"renderfarm/internal/services"
	"renderfarm/internal/sessions"
	"renderfarm/internal/state"
)

// Dispatch runs one action. Failures are recorded as alerts before being
// returned.
func (c *Core) Dispatch(ctx context.Context, req Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithAction(ctx, req.Action.String())
	logger := logging.WithContext(ctx, c.logger)

	if _, err := c.store.PruneAlerts(ctx, c.now()); err != nil {
		logger.Warn("alert pruning failed", logging.Error(err))
	}

	params, err := req.checkParams()
	if err != nil {
		return c.raise(ctx, err)
	}

	started := time.Now()
	if err := c.run(ctx, req.Action, params); err != nil {
		return c.raise(ctx, err)
	}
	logger.Debug("action completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

func (c *Core) run(ctx context.Context, action Action, params Params) error {
	switch action {
	case ActionLogin:
		return c.doLogin(ctx, params.(LoginParams))
	case ActionLogout:
		return c.doLogout(ctx)
	case ActionRefresh:
		return c.doRefresh(ctx)
	case ActionSelectCompleted:
		return c.selectView(ctx, sessions.StageView(sessions.StageCompleted))
	case ActionSelectRendering:
		return c.selectView(ctx, sessions.StageView(sessions.StageRendering))
	case ActionSelectPending:
		return c.selectView(ctx, sessions.StageView(sessions.StagePending))
	case ActionSelectCancelled:
		return c.selectView(ctx, sessions.StageView(sessions.StageCancelled))
	case ActionCancelSelected:
		return c.doCancel(ctx)
	case ActionCheckStatus:
		return c.doCheckStatus(ctx)
	case ActionLocalTestRender:
		return c.doTestRender(ctx, params.(SceneParams))
	case ActionSubmit:
		return c.doSubmit(ctx, params.(SceneParams))
	case ActionResetForm:
		return c.doResetForm(ctx)
	case ActionUseDefaultRenderer:
		return c.useRenderer(ctx, false)
	case ActionUsePhysicalRenderer:
		return c.useRenderer(ctx, true)
	case ActionCopySceneSettings:
		return c.doCopySceneSettings(ctx, params.(SceneParams))
	case ActionSwitchToRemote:
		return c.switchEngine(ctx, params.(SceneParams), true)
	case ActionSwitchToLocal:
		return c.switchEngine(ctx, params.(SceneParams), false)
	default:
		return fmt.Errorf("unknown action %d", int(action))
	}
}

// raise records err as an alert and returns it. Transient kinds expire after
// the configured window; any other kind replaces the previous alert of the
// same kind. Authentication failures also forget the stored credentials.
func (c *Core) raise(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	logger := logging.WithContext(ctx, c.logger)
	kind := services.KindOf(err)
	now := c.now()

	if kind == services.KindAuthentication {
		c.forgetCredentials(ctx)
	}

	alert := state.Alert{Kind: kind, Message: err.Error(), CreatedAt: now}
	if kind.Transient() {
		alert.ExpiresAt = now.Add(c.cfg.TransientAlertWindow())
	} else if clearErr := c.store.ClearAlerts(ctx, kind); clearErr != nil {
		logger.Warn("clear alerts failed", logging.Error(clearErr))
	}
	if _, addErr := c.store.AddAlert(ctx, alert); addErr != nil {
		logger.Warn("record alert failed", logging.Error(addErr))
	}

	logging.ErrorWithContext(logger, "action failed", "action_failed",
		logging.String("error_kind", string(kind)),
		logging.Error(err))
	return err
}

// settle clears the persistent alerts a successful action resolves.
func (c *Core) settle(ctx context.Context, kinds ...services.Kind) {
	if len(kinds) == 0 {
		return
	}
	if err := c.store.ClearAlerts(ctx, kinds...); err != nil {
		logging.WithContext(ctx, c.logger).Warn("clear alerts failed", logging.Error(err))
	}
}

// forgetCredentials empties the credential file and the login so the next
// Overview asks for a login again.
func (c *Core) forgetCredentials(ctx context.Context) {
	logger := logging.WithContext(ctx, c.logger)
	c.record.User, c.record.Hash = "", ""
	if err := c.creds.Write(c.record); err != nil {
		logger.Warn("clear credentials failed", logging.Error(err))
	}
	c.loggedIn = false
	c.login = state.Login{}
	if err := c.store.ClearLogin(ctx); err != nil {
		logger.Warn("clear login failed", logging.Error(err))
	}
}
