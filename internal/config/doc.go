// Package config loads the castenv command's own settings from multiple
// sources (YAML files, CASTENV_* environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults. It
// produces the source.Config used for key resolution together with logging
// and inspector server settings.
package config
