// Package remote fetches the authoritative asset version over HTTP.
//
// # Overview
//
// The asset host publishes a single JSON document next to the assets:
//
//	GET {baseURL}/version.json
//	200 OK
//	{"version": "v7"}
//
// Client.FetchVersion performs exactly one request per call and aborts it
// once the deadline passes. There is no retry here; the coordinator decides
// when to try again.
//
// # Failure Kinds
//
//   - KindTimeout: the deadline expired before a complete response arrived
//   - KindNetwork: connection, DNS or TLS failure
//   - KindBadResponse: non-2xx status, malformed JSON, or a missing or empty
//     version field
//
// Every failure is a *FetchError and matches one of ErrTimeout, ErrNetwork
// or ErrBadResponse under errors.Is. All three are recoverable: callers keep
// serving the last known tag.
package remote
