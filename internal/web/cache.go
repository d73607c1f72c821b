package web

import "portfolio/framework/httpserver"

const (
	cacheControlPages   = "public, max-age=60, s-maxage=300"
	cacheControlAssets  = "public, max-age=3600, s-maxage=3600"
	cacheControlNoStore = "no-store"
)

// cachePolicies keeps page HTML short-lived since it mirrors upstream data.
// Development disables caching for pages so edits show up immediately.
func cachePolicies(development bool) httpserver.CachePolicies {
	policies := httpserver.CachePolicies{
		HTML:   cacheControlPages,
		Static: cacheControlAssets,
		Health: cacheControlNoStore,
		Error:  cacheControlNoStore,
	}
	if development {
		policies.HTML = cacheControlNoStore
		policies.Static = cacheControlNoStore
	}
	return policies
}
