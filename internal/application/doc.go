// Package application provides application initialization and dependency wiring.
// It builds the castenv resolution context (including the optional settings
// file provider), the inspector handlers and router, and the HTTP server,
// keeping the main package focused on CLI parsing and orchestration.
package application
