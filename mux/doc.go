// Package mux implements a middleware stack dispatcher for HTTP servers.
//
// A Dispatcher owns an ordered Stack of entries. Each entry pairs a path
// Matcher with a list of items, where an item is either a Middleware or a
// Router holding middlewares per request method. For every request the
// dispatcher walks the entries in order, runs the items of every entry
// whose matcher accepts the request path, and stops as soon as a
// middleware finishes the Context. When nothing finishes it, the request
// fails with 404 Not Found.
//
// The package implements semantics based on:
//   - RFC 9110 (HTTP Semantics)
//   - RFC 9110 Section 13 (conditional requests) and Section 14 (range
//     requests) for SendFile
//
// # Stack
//
// Items are attached for every path with Use, or for the paths a Matcher
// accepts with UseAt:
//
//	d := mux.New(mux.Config{})
//	d.Use(requestLogger)
//	d.UseAt(mux.Path("/health"), health)
//	d.UseAt(mux.MustPattern("/users/{id:uuid}"), users)
//
// Consecutive attachments under an equal matcher share one entry. Off and
// OffAt remove one occurrence of each item and merge entries that become
// adjacent with equal matchers, so attach and detach cycles never
// fragment the stack.
//
// # Matchers
//
// Any accepts every path, Path accepts one exact path and Regexp accepts
// the paths a regular expression matches. Pattern builds a Regexp matcher
// from a template with {name} and {name:pattern} variables, where pattern
// may name a type:
//
//	uuid     - RFC 4122 UUID (e.g. 550e8400-e29b-41d4-a716-446655440000)
//	int      - unsigned integer (e.g. 42)
//	float    - decimal number (e.g. 3.14, 42, .5)
//	slug     - URL-safe slug (e.g. my-post-title)
//	alpha    - alphabetic characters (e.g. hello)
//	alphanum - alphanumeric characters (e.g. abc123)
//	date     - ISO 8601 date (e.g. 2024-01-15)
//	hex      - hexadecimal string (e.g. deadBEEF)
//	domain   - domain name per RFC 1123 (e.g. example.com, sub.example.co.uk)
//
// Captured variables are available through Context.Vars.
//
// # Middleware
//
// A Middleware runs a RunFunc. Returning a Context replaces the Context
// for the rest of the dispatch; returning an error fails the request
// unless IgnoreErrors is set. Disabled middleware is skipped. Panics are
// recovered and treated as errors.
//
//	hello := mux.Func(func(c *mux.Context) error {
//	    return c.Text("hello")
//	})
//
// # Routers
//
// A Router selects middlewares by request method. HEAD requests run the
// GET middlewares unless Config.DisableAutoHead is set. A guarded router
// with at least one registered method answers other methods with 405
// Method Not Allowed and an Allow header listing the supported methods.
//
//	api := mux.NewGuardedRouter()
//	api.Get(listUsers)
//	api.Post(createUser)
//	d.UseAt(mux.Path("/users"), api)
//
// # Error Handling
//
// Every dispatch error reaches the error handler exactly once. The
// default handler derives the status from the error (see Error), sends the
// message or JSON payload only when the error is exposed, ends responses
// whose headers were already sent, and closes the connection of responses
// that had already ended. Config.ErrorHandler replaces it.
//
// # Files
//
// Context.SendFile and Context.SendFileFS send a file honouring
// If-Modified-Since, If-Range and Range; EvaluateFile exposes the decision
// on its own.
package mux
