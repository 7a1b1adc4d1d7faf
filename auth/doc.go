// Package auth decides, for each incoming HTTP request, which principal (if any) the
// request is acting as.
//
// A Pipeline extracts hmac.Credentials from the request, passes them to an
// Authenticator, and then, if one is configured, asks an Authorizer whether the
// resulting principal may perform the request. Every failure is reported as a
// *Rejection whose kind maps to an HTTP status code:
//
//	MissingApiKey     400  no 'apiKey' query parameter
//	Unauthorized      401  credentials were not accepted
//	Forbidden         403  the authorizer denied the request
//	InternalAuthError 500  the authenticator or authorizer itself failed
//
// Middleware binds a Pipeline to net/http, e.g. on a chi router:
//
//	p := auth.NewPipeline[string](hmac.NewAuthenticator(store, skew), authorizer)
//	r.Use(auth.Middleware(p))
//	r.Get("/pizza", func(w http.ResponseWriter, r *http.Request) {
//		principal, _ := auth.PrincipalFrom[string](r.Context())
//		...
//	})
package auth
