// Package domainstore is the HTTP client for the domain and document store.
//
// The store owns the domain hierarchy, the attached documents, and the
// persisted coordinates. Every endpoint is relative to a base URL ending in
// /api:
//
//	GET    domains?parentId=            one hierarchy level plus distances
//	GET    domains/{id}                 a single domain
//	GET    domains/{id}/path            ancestor chain, root first
//	POST   domains                      create
//	PUT    domains/{id}                 update name, description, x, y
//	DELETE domains/{id}                 delete with descendants
//	POST   domains/positions            bulk coordinate write-back
//	POST   domains/{id}/documents       multipart upload
//	DELETE domains/{id}/documents/{doc} detach a document
//	GET    documents/{path}             raw document bytes
//	GET    documents/{path}/summary     generated summary
//	POST   documents/{path}/query       free-text question
//
// # Caching
//
// When a [cache.Cache] is configured, every successful listing is stored
// under its parent id. If a later fetch fails, the last good listing is
// returned with Stale set so the caller can keep the view alive and tell
// the user the data may be outdated.
//
// # Errors
//
// 404 responses wrap [cache.ErrNotFound]; transport failures and 5xx
// responses wrap [cache.ErrNetwork] and are retried for idempotent requests.
// Position write-back is never retried.
package domainstore
