// Package models maps the model byte reported by a controller to the
// capabilities that govern how its state is decoded and commands are built.
//
// The table is built once with NewRegistry and is read-only afterwards, so a
// single *Registry may be shared by any number of goroutines. Lookup is total:
// model ids with no entry resolve to a conservative RGB-only legacy
// descriptor and a warning is logged.
package models
