// symbols/universe.go - Main universe entry point
//
// The universe is the registry every type observation goes through. It is
// split into focused modules:
// - universe_core.go: declaration types (TypeDecl, Function, special members)
// - universe_init.go: fundamental types, aliases and the builtins singleton
// - universe_operations.go: defining and looking up declarations across scopes
// - universe_resolution.go: normalisation, template instances and member lookup

package symbols
