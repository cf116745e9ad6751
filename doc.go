// Package dulceria implements the client-side session and authentication
// lifecycle for the Dulcería catalog administration API: unverified token
// decoding, durable session storage, a session state machine, route gating,
// and a REST client with a uniform error taxonomy.
//
// Session lifecycle:
//   - SessionManager owns the in-memory auth state and is the only component
//     allowed to write the session store. It moves between Unauthenticated,
//     Authenticating, and Authenticated through an explicit transition table
//     and exposes a read-only StateReader view for route guards.
//   - Store persists the raw token and its decoded claims under two fixed
//     keys that are always written together and cleared together. A lone
//     token without claims (or vice versa) counts as no session.
//   - SessionWatcher re-validates the stored token on a recurring schedule
//     and stops itself once the session goes invalid.
//
// Token handling:
//   - DecodeToken extracts claims from the payload segment of a compact
//     signed token without verifying the signature. The server is the trust
//     boundary; this package only consumes tokens it was issued.
//
// The APIClient wraps the remote REST endpoints (login, users, catalog
// types, catalogs), attaches bearer credentials where required, and maps
// non-2xx responses into the error taxonomy in errors.go before they reach
// callers.
package dulceria
