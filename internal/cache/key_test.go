package cache

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	t.Parallel()

	key := Key{Endpoint: "/repos/vercel/next.js/releases"}
	assert.Equal(t, "gh:repos/vercel/next.js/releases", key.String())
}

func TestKeyStringQueryParamsSorted(t *testing.T) {
	t.Parallel()

	params := url.Values{}
	params.Set("state", "all")
	params.Set("per_page", "50")
	params.Set("since", "2026-08-16T00:00:00Z")

	key := Key{
		Endpoint:    "/repos/nuxt/nuxt/issues",
		QueryParams: params,
	}

	// Params appear in sorted order regardless of insertion order.
	assert.Equal(t,
		"gh:repos/nuxt/nuxt/issues:per_page=50:since=2026-08-16T00:00:00Z:state=all",
		key.String())
}

func TestKeyStringDeterministic(t *testing.T) {
	t.Parallel()

	a := Key{Endpoint: "/repos/withastro/astro/issues", QueryParams: url.Values{"state": {"all"}, "per_page": {"50"}}}
	b := Key{Endpoint: "repos/withastro/astro/issues/", QueryParams: url.Values{"per_page": {"50"}, "state": {"all"}}}

	assert.Equal(t, a.String(), b.String())
}
