// Package env reads raw process environment values. Structured configuration
// goes through envconfig; this exists for the few knobs consulted before the
// configuration is loaded, such as the logger's output format.
package env

import "os"

// Get returns the named variable, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
