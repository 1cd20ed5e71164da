// Package github is a typed client for the GitHub REST API covering the
// endpoints the intelligence pipeline needs: repository releases and
// issues. It layers conditional-request caching, retry with exponential
// backoff, and rate-limit awareness over net/http.
package github
