// Package config loads the settings of the text core from TOML, YAML or
// JSON files.
//
// A file only needs the keys it changes; everything else keeps the value
// from Defaults:
//
//	[editor]
//	tab_width = 8
//
//	[history]
//	merge_window = "500ms"
//
//	[palette]
//	find = "mark #ffcc00 bold"
//
// Config.Open turns a configuration into document options. A Watcher
// reloads a file when it is written and reports the changed keys through
// a Notifier.
package config
