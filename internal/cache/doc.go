// Package cache provides a Redis-backed cache for GitHub API responses
// with ETag/Last-Modified support for conditional requests. Entries honor
// the Cache-Control max-age (or Expires) header of the upstream response.
package cache
