// Package remotes renders the fetch and push URLs a repository's remote should carry
// for its effective multi-push configuration.
package remotes
