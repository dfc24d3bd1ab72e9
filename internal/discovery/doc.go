// Package discovery locates git repositories beneath scan roots.
package discovery
