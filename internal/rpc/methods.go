package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"renderfarm/internal/logging"
	"renderfarm/internal/services"
)

const unknownUserFault = "Failed to invoke method getSessionKey"

// Credentials is the result of a successful login.
type Credentials struct {
	Key    string
	UserID int64
}

// Status is the service message of the day.
type Status struct {
	Accepting bool
	Motd      string
}

// SessionSlot is the session allocated (or reused) for a new submission.
type SessionSlot struct {
	Key string
	ID  int64
}

// Login exchanges the stored user and password hash for a session key.
func (c *Client) Login(ctx context.Context, user, hash string) (Credentials, error) {
	user = strings.TrimSpace(user)
	hash = strings.TrimSpace(hash)
	if user == "" || hash == "" {
		return Credentials{}, services.Wrap(services.ErrAuthentication, "rpc", "login", "no credentials stored", nil)
	}

	if c.verbose {
		logging.WithContext(ctx, c.logger).Debug("login request",
			logging.String("user", user),
			logging.Redacted("hash", hash))
	}
	value, err := c.call(ctx, c.endpoints.Secure, "auth.getSessionKey", user, hash)
	if err != nil {
		var fault Fault
		if errors.As(err, &fault) {
			msg := "server rejected login"
			if strings.Contains(fault.String, unknownUserFault) {
				msg = user + " doesn't exist"
			}
			return Credentials{}, services.Wrap(services.ErrAuthentication, "rpc", "login", msg, err)
		}
		return Credentials{}, services.Wrap(services.ErrTransport, "rpc", "login", "", err)
	}

	key, ok := keyOf(value)
	if !ok {
		return Credentials{}, services.Wrap(services.ErrAuthentication, "rpc", "login", "response carries no session key", nil)
	}
	rawID, _ := Member(value, "userID", "userId", "user_id")
	userID, ok := AsInt(rawID)
	if !ok {
		return Credentials{}, services.Wrap(services.ErrAuthentication, "rpc", "login", "response carries no user id", nil)
	}
	c.logger.Info("logged in", logging.String("user", user), logging.Int64("user_id", userID))
	return Credentials{Key: key, UserID: userID}, nil
}

// GetSessions lists one page of the user's sessions in a wire stage.
func (c *Client) GetSessions(ctx context.Context, userID int64, stage string, offset, limit int, detail bool) ([]map[string]any, error) {
	value, err := c.callWithRetry(ctx, c.endpoints.General, "session.getSessions", userID, stage, offset, limit, detail)
	if err != nil {
		return nil, services.Wrap(services.ErrQuery, "rpc", "getSessions", "stage "+stage, err)
	}
	if inner, ok := Member(value, "sessions"); ok {
		value = inner
	}
	items, ok := value.([]any)
	if !ok {
		return nil, services.Wrap(services.ErrQuery, "rpc", "getSessions", fmt.Sprintf("unexpected response %T", value), nil)
	}
	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, services.Wrap(services.ErrQuery, "rpc", "getSessions", fmt.Sprintf("record %d is %T", i, item), nil)
		}
		records = append(records, record)
	}
	return records, nil
}

// CreateSession asks for a session slot. The server hands back the user's
// unsubmitted session when one exists.
func (c *Client) CreateSession(ctx context.Context, userID int64, key string) (SessionSlot, error) {
	value, err := c.call(ctx, c.endpoints.General, "session.createSession", userID, key)
	if err != nil {
		return SessionSlot{}, services.Wrap(services.ErrTransport, "rpc", "createSession", "", err)
	}
	next, ok := keyOf(value)
	if !ok {
		return SessionSlot{}, services.Wrap(services.ErrTransport, "rpc", "createSession", "response carries no session key", nil)
	}
	rawID, _ := Member(value, "sessionId", "sessionID", "id")
	id, ok := AsInt(rawID)
	if !ok {
		return SessionSlot{}, services.Wrap(services.ErrTransport, "rpc", "createSession", "response carries no session id", nil)
	}
	return SessionSlot{Key: next, ID: id}, nil
}

// SetParam sets one session parameter and returns the next key.
func (c *Client) SetParam(ctx context.Context, userID int64, key string, sessionID int64, param Param, value any) (string, error) {
	return c.keyedCall(ctx, services.ErrTransport, param.Method(), userID, key, sessionID, value)
}

// Submit queues the configured session for approval.
func (c *Client) Submit(ctx context.Context, userID int64, key string, sessionID int64) (string, error) {
	return c.keyedCall(ctx, services.ErrTransport, "session.submit", userID, key, sessionID)
}

// CancelSession cancels a session on the server.
func (c *Client) CancelSession(ctx context.Context, userID int64, key string, sessionID int64) (string, error) {
	return c.keyedCall(ctx, services.ErrCancel, "session.cancelSession", userID, key, sessionID)
}

// CancelWithLogin logs in with the stored credentials and cancels sessionID
// with the fresh key.
func (c *Client) CancelWithLogin(ctx context.Context, user, hash string, sessionID int64) (Credentials, error) {
	creds, err := c.Login(ctx, user, hash)
	if err != nil {
		return Credentials{}, err
	}
	next, err := c.CancelSession(ctx, creds.UserID, creds.Key, sessionID)
	if err != nil {
		return creds, err
	}
	creds.Key = next
	return creds, nil
}

// Motd fetches the service status.
func (c *Client) Motd(ctx context.Context) (Status, error) {
	value, err := c.callWithRetry(ctx, c.endpoints.General, "service.motd")
	if err != nil {
		return Status{}, services.Wrap(services.ErrTransport, "rpc", "motd", "", err)
	}
	var status Status
	if raw, ok := Member(value, "accepting"); ok {
		status.Accepting, _ = AsBool(raw)
	}
	if raw, ok := Member(value, "motd"); ok {
		status.Motd, _ = AsString(raw)
	}
	return status, nil
}

func (c *Client) keyedCall(ctx context.Context, marker error, method string, params ...any) (string, error) {
	value, err := c.call(ctx, c.endpoints.General, method, params...)
	if err != nil {
		return "", services.Wrap(marker, "rpc", method, "", err)
	}
	next, ok := keyOf(value)
	if !ok {
		return "", services.Wrap(marker, "rpc", method, "response carries no session key", nil)
	}
	return next, nil
}

// keyOf accepts a bare key string or a struct with a key member.
func keyOf(value any) (string, bool) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) != "" {
		return s, true
	}
	raw, ok := Member(value, "key", "sessionKey")
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok && strings.TrimSpace(s) != ""
}
