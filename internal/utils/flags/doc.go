// Package flags renders usage text for command-line flags that accept one of a fixed set of values.
package flags
