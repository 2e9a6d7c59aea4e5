// Package api holds one function per REST route of the disaster service.
// Each function validates its input before any network call and delegates
// the envelope to a gateway.Caller.
package api
