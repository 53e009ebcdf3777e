// Package importer turns a foreign namespace tree into a tree of call
// adapters.
//
// Import lists the callables of each namespace, builds a trampoline
// Adapter per callable and recurses into child namespaces. The result is
// an owned Namespace value; nothing is registered globally. Callables
// that cannot be probed are skipped and reported.
package importer
