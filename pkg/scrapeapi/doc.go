// Package scrapeapi implements the client for the upstream scrape API and
// the paginated fetcher built on top of it.
//
// The upstream exposes a single POST endpoint taking a target name, a
// query (or URL) and an optional continuation cursor, and returns deeply
// nested GraphQL-shaped JSON. The nesting path differs per target and is
// a fixed contract, so each target gets its own narrow extraction
// function; nothing else in the repository touches the raw payloads.
//
// Rate limiting (429) is survived with exponential backoff; any other
// failure status fails the call immediately with the request payload and
// response body captured for diagnosis.
package scrapeapi
