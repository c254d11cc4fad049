// Package config loads stepscope's configuration.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML or
// YAML file chosen by extension, and STEPSCOPE_* environment variables.
//
//	[adapter]
//	type = "delve"
//	address = "127.0.0.1:4711"
//
//	[session]
//	stop_timeout = "2s"
//
//	[log]
//	level = "debug"
//
// Environment variables use the section and key in upper case, for example
// STEPSCOPE_ADAPTER_ADDRESS or STEPSCOPE_LOG_LEVEL.
package config
