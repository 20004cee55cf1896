// Package config loads recmap settings from a YAML file under the XDG config
// directory, a local .env file and RECMAP_* environment variables, in
// increasing order of precedence.
package config
