// Package handler provides HTTP request handlers for the Kinship API.
//
// Each handler struct wraps one service behind a small interface declared
// next to it, so tests can substitute stubs. Handlers decode the request,
// call the service with the caller's model.Principal, and write the result.
//
// # Response Format
//
// Handlers use standardized response functions:
//
//   - WriteData: Single resource with optional HATEOAS links
//   - WriteCollection: List of resources, never null
//   - WriteNoContent: 204 for deletes and actions without a body
//   - WriteServiceError: maps service errors through MapServiceError
//
// Errors are RFC 9457 Problem Details (application/problem+json).
//
// # Example Usage
//
//	children := handler.NewChildHandler(childService)
//	mux.Handle("GET /api/children", auth(http.HandlerFunc(children.List)))
//	mux.Handle("POST /api/children", auth(http.HandlerFunc(children.Create)))
package handler
