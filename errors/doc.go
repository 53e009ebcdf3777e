// Package errors provides structured error types for the value bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the context needed to act on a failure without parsing
// the message: conversion source and target views, the offending operator and
// operand, the offending parameter, and the key path with the depth of a miss.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindConversion).
//		Convert("string", "int", "12abc").
//		Detail("not an integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DivideByZero("%")
//	err := errors.KeyMissing([]string{"a", "b"}, 1)
//
// Every kind has a sentinel for errors.Is:
//
//	if errors.Is(err, errors.ErrKey) { ... }
//
// Failures reported by the foreign runtime are *ForeignError values; their
// code, traceback and stack are passed through untouched.
package errors
