// Package client talks to the document verification service over HTTP.
//
// Every request carries a User-Agent, a fresh X-Request-ID correlation id and,
// while a session is open, a bearer token. Failures are classified into two
// typed errors:
//
//   - *ValidationError (errors.Is ErrValidation): the file was rejected
//     locally before any network call.
//   - *TransportError (errors.Is ErrTransport): the request could not be
//     sent, or the service answered with a non-2xx status. The HTTP status
//     and the service's "detail" message are preserved.
//
// The client never retries. Callers that want another attempt call again.
package client
