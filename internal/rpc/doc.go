// Package rpc is the client for the farm's XML-RPC surface.
//
// Login goes to the secure endpoint; session enumeration, session
// configuration, submit, cancel and the service status go to the general
// endpoint. Every keyed call consumes the session key returned by the
// previous call and returns the next one. Failures are tagged with the
// services error markers so callers can classify them with services.KindOf.
//
// Bodies are encoded and decoded with github.com/kolo/xmlrpc; the HTTP round
// trip goes through the injected HTTPDoer so every call carries its context.
package rpc
