// Package server exposes trend search, chat, analysis and enrichment over
// HTTP. Every response body is a JSON envelope of the form
// {"success": bool, "message": string, "data": any}.
package server
