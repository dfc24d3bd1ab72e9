// Package ui formats git command lifecycle events for the console.
//
// Messages carry redacted command labels so credentials embedded in remote URLs
// never reach terminal output, while structured fields keep flowing through zap.
package ui
