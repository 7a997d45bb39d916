// Package cli provides the interactive discbaboons command-line client.
//
// It wires configuration, the encrypted local keychain, the auth API client
// and the session controller, then runs a small REPL. On start the stored
// session, if any, is restored; while logged in the session is refreshed in
// the background ahead of access-token expiry.
//
// Commands:
//   - login / logout
//   - whoami, status
//   - refresh
//   - forgot-password, reset-password, forgot-username
//   - help, exit | quit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
