// Package muxhandlers provides ready-made middlewares for the mux
// dispatcher. Every constructor returns a *mux.Middleware that is attached
// with Dispatcher.Use or UseAt, and most of them validate their
// configuration and return an error when it is unusable.
//
// Middlewares that decide response headers late (cache control and
// compression) register hooks on the mux.Response and must be attached
// ahead of the middlewares producing the response.
//
// # CORS Middleware
//
// CORSMiddleware implements the CORS protocol per the Fetch Standard. It
// answers preflight requests by finishing the Context, so it must come
// before a guarded router that would otherwise reply 405 to OPTIONS.
//
//	users := mux.NewGuardedRouter()
//	users.Get(listUsers)
//
//	cors, err := muxhandlers.CORSMiddleware(muxhandlers.CORSConfig{
//	    AllowedOrigins: []string{"https://example.com"},
//	    Router:         users,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	d.Use(cors)
//	d.UseAt(mux.Path("/users"), users)
//
// # Basic Auth Middleware
//
// BasicAuthMiddleware implements HTTP Basic Authentication per RFC 7617.
// Credentials can be validated via a dynamic callback or a static map.
// Static credentials are compared in constant time.
//
//	mw, err := muxhandlers.BasicAuthMiddleware(muxhandlers.BasicAuthConfig{
//	    Realm: "My App",
//	    Credentials: map[string]string{
//	        "admin": "secret",
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.UseAt(mux.MustPattern("/admin/{path:.*}"), mw)
//
// # Proxy Headers Middleware
//
// ProxyHeadersMiddleware rewrites the request seen by the rest of the
// dispatch from reverse proxy headers when the peer is a trusted proxy.
// It sets RemoteAddr from X-Forwarded-For or X-Real-IP, the URL scheme
// from X-Forwarded-Proto or X-Forwarded-Scheme, and Host from
// X-Forwarded-Host. When EnableForwarded is true, the RFC 7239 Forwarded
// header is used as a lowest-priority fallback. When TrustedProxies is
// empty, DefaultTrustedProxies (RFC 1918, RFC 4193, and loopback ranges)
// is used.
//
//	mw, err := muxhandlers.ProxyHeadersMiddleware(muxhandlers.ProxyHeadersConfig{
//	    TrustedProxies:  []string{"10.0.0.0/8", "172.16.0.0/12"},
//	    EnableForwarded: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.Use(mw)
//
// # Static Files Middleware
//
// StaticFilesMiddleware serves files from an fs.FS with conditional and
// range request support, and falls through to the next stack entry when
// no file matches.
//
//	mw, err := muxhandlers.StaticFilesMiddleware(muxhandlers.StaticFilesConfig{
//	    FS:     os.DirFS("public"),
//	    Prefix: "/static/",
//	})
package muxhandlers
