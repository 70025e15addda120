// Package github resolves GitHub App installation tokens and mutates
// repository content with them.
//
// This package includes:
//   - App JWT signing and installation-token resolution for one organization
//   - An authenticated API client with rate limiting and logging transports
//   - Two file-write strategies: the contents API (read SHA, write contents)
//     and the Git data API (blob, tree, commit, fast-forward ref move)
//   - Bounded read projections over repositories, issues, PRs and search
//   - A multi-file GraphQL commit and local clone helpers
//
// The App is bound to exactly one organization; every client carries a
// short-lived installation token scoped to that installation.
package github
