// Package helpers provides HTTP request builders and response assertions for
// tests that drive the full handler chain.
//
//	tokens := helpers.NewTestJWTService(t)
//	resp := helpers.NewRequest(t, http.MethodGet, "/api/auth/me").
//	    WithToken(helpers.TokenFor(t, tokens, user)).
//	    Do(handler)
//	helpers.AssertStatus(t, resp, http.StatusOK)
package helpers
