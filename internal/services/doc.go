// Package services holds the data-driven catalog of git hosting services.
//
// A Catalog is parsed from YAML in document order so that iteration (and
// therefore URL-to-service detection) is deterministic. A Registry combines
// the catalog with the user's per-service settings and validates the
// combination once at startup; adding a service is a catalog entry, never a
// code change.
package services
