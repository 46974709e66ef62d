// Package wellness implements a personal wellness tracker server.
//
// Signed-in users record daily metrics (steps walked, hours slept, mood and
// optional notes) and see them as summary cards, a table and a time series.
// Every browser session owns one client holding the identity stream and the
// metrics view bound to it; the view is always scoped to the signed-in
// owner and can be restricted to an inclusive date range.
//
// Records and user profiles live in memory or in PostgreSQL. Identity is
// handled by a local argon2 credential store or a Supabase project, and
// session tokens can be kept in Redis so a restart does not sign users out.
//
// Features:
//   - Sign-up, sign-in, federated sign-in and sign-out
//   - Create, edit and delete metric records
//   - Total steps, average sleep and last mood aggregates
//   - Date range filtering with last-request-wins fetch sequencing
//   - Response compression using gzip
//   - Structured logging
//   - Audit logging of record changes to a file or HTTP endpoint
//   - Graceful shutdown handling
//
// The server is configured via command-line flags and environment variables.
package wellness
