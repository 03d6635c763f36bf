// Package config holds the engine configuration: a JSON or YAML file of
// optional keys whose Get* accessors supply defaults. The canonical
// defaults live in config/engine.defaults.json at the repository root.
//
// Dependency rule: config imports no other internal package.
package config
