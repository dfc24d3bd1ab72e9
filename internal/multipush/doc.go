// Package multipush holds the user-facing multi-push configuration and resolves it per repository.
package multipush
