// Package config loads formsync runtime settings.
//
// Sources are applied in order, later ones overriding earlier ones:
// built-in defaults, a JSON file given with -c/-config, then command-line
// flags. Each source only reads the flags it owns so the remaining
// arguments stay available to the CLI.
package config
