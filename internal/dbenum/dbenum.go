// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dbenum maps closed sets of Go values to their on-the-wire codes.
//
// A Table pairs each variant with exactly one string code and resolves in
// both directions. Tables are built once at package init and are read-only
// afterwards, so they are safe for concurrent use.
package dbenum

import (
	"fmt"

	"github.com/samber/oops"
)

// Error codes returned by Table lookups.
const (
	CodeUnknownValue = "ENUM_UNKNOWN_VALUE"
	CodeUnknownCode  = "ENUM_UNKNOWN_CODE"
)

// Entry binds one variant to its code.
type Entry[T comparable] struct {
	Value T
	Code  string
}

// Table is a bidirectional lookup between variants and codes.
type Table[T comparable] struct {
	name    string
	order   []T
	toCode  map[T]string
	toValue map[string]T
}

// New builds a table named name from entries. It panics on a duplicate
// value or code, since tables are package-level declarations.
func New[T comparable](name string, entries ...Entry[T]) *Table[T] {
	t := &Table[T]{
		name:    name,
		order:   make([]T, 0, len(entries)),
		toCode:  make(map[T]string, len(entries)),
		toValue: make(map[string]T, len(entries)),
	}
	for _, e := range entries {
		if _, dup := t.toCode[e.Value]; dup {
			panic(fmt.Sprintf("dbenum %s: duplicate value %v", name, e.Value))
		}
		if _, dup := t.toValue[e.Code]; dup {
			panic(fmt.Sprintf("dbenum %s: duplicate code %q", name, e.Code))
		}
		t.order = append(t.order, e.Value)
		t.toCode[e.Value] = e.Code
		t.toValue[e.Code] = e.Value
	}
	return t
}

// Name returns the table name used in error context.
func (t *Table[T]) Name() string {
	return t.name
}

// Code returns the wire code for v.
func (t *Table[T]) Code(v T) (string, error) {
	code, ok := t.toCode[v]
	if !ok {
		return "", oops.Code(CodeUnknownValue).
			With("enum", t.name).
			Errorf("unknown %s value %#v", t.name, v)
	}
	return code, nil
}

// Parse returns the variant for code.
func (t *Table[T]) Parse(code string) (T, error) {
	v, ok := t.toValue[code]
	if !ok {
		var zero T
		return zero, oops.Code(CodeUnknownCode).
			With("enum", t.name).
			With("code", code).
			Errorf("unknown %s %q", t.name, code)
	}
	return v, nil
}

// Values returns the variants in declaration order.
func (t *Table[T]) Values() []T {
	out := make([]T, len(t.order))
	copy(out, t.order)
	return out
}

// Codes returns the wire codes in declaration order.
func (t *Table[T]) Codes() []string {
	out := make([]string, len(t.order))
	for i, v := range t.order {
		out[i] = t.toCode[v]
	}
	return out
}
