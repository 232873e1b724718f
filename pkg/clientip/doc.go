// Package clientip resolves the originating client address of a request
// served behind reverse proxies.
//
// Headers are consulted in priority order and the first valid address wins.
// X-Forwarded-For style lists yield their first valid entry. When no header
// carries a usable address the TCP peer address is used.
//
// The resolved address feeds per-client rate limiting and request logging:
//
//	r := chi.NewRouter()
//	r.Use(clientip.Middleware)
//	r.Use(ratelimiter.Middleware(bucket, ratelimiter.ByClientIP, log))
//
// Deployments that are reachable directly, without a proxy rewriting these
// headers, should use MiddlewareWithHeaders with no headers so clients
// cannot spoof their address.
package clientip
