package config

import (
	"os"
	"strings"
)

// FallbackSourceEnabled controls whether the secondary reference-code
// upstream is consulted when the primary returns nothing.
//
// Set via env:
// - NCM_FALLBACK_SOURCE_ENABLED=true (default true)
func FallbackSourceEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("NCM_FALLBACK_SOURCE_ENABLED")))
	if v == "" {
		return true
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// UploadArchivalEnabled controls whether original spreadsheets are copied
// to Cloud Storage after parsing. Parsing succeeds either way.
//
// Set via env:
// - UPLOAD_ARCHIVAL_ENABLED=true
func UploadArchivalEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("UPLOAD_ARCHIVAL_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
