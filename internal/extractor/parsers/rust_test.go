package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

func TestRustParser_Imports(t *testing.T) {
	t.Parallel()

	src := `extern crate serde;
use std::collections::HashMap;
use std::io::{Read, Write as W};
use std::fmt::*;
use anyhow;
use crate::config::Settings as Cfg;

fn main() {
    use std::mem;
}
`
	result, err := NewRustParser().Extract(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "rs", NewRustParser().Lang())
	assert.Equal(t, []extraction.ImportRecord{
		{Source: "serde", Specifiers: []string{"*"}},
		{Source: "std::collections", Specifiers: []string{"HashMap"}},
		{Source: "std::io", Specifiers: []string{"Read", "Write"}},
		{Source: "std::fmt", Specifiers: []string{"*"}},
		{Source: "anyhow", Specifiers: []string{"*"}},
		{Source: "crate::config", Specifiers: []string{"Settings"}},
	}, result.Imports)
}

func TestRustParser_Exports(t *testing.T) {
	t.Parallel()

	src := `pub const MAX: usize = 10;
static mut COUNTER: u32 = 0;

pub struct Stack<T> {
    items: Vec<T>,
}

impl<T> Stack<T> {
    pub fn new() -> Self {
        fn helper() {}
        Stack { items: Vec::new() }
    }

    pub fn push(&mut self, item: T) {
        self.items.push(item);
    }
}

pub trait Shape {
    fn area(&self) -> f64;
}

pub enum Color { Red, Green }

pub fn run() {}

mod inner {
    pub fn hidden() {}
}
`
	result, err := NewRustParser().Extract(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"MAX",
		"COUNTER",
		"Stack",
		"Stack.new",
		"Stack.push",
		"Shape",
		"Shape.area",
		"Color",
		"run",
	}, exportNames(result.Exports))

	kinds := map[string]extraction.Kind{}
	for _, e := range result.Exports {
		kinds[e.Name] = e.Kind
	}
	assert.Equal(t, extraction.KindVariable, kinds["MAX"])
	assert.Equal(t, extraction.KindClass, kinds["Stack"])
	assert.Equal(t, extraction.KindMethod, kinds["Stack.push"])
	assert.Equal(t, extraction.KindMethod, kinds["Shape.area"])
	assert.Equal(t, extraction.KindClass, kinds["Color"])
	assert.Equal(t, extraction.KindFunction, kinds["run"])
	assert.Equal(t, extraction.Location{Line: 4, Column: 0}, result.Exports[2].Loc)
}

func TestRustParser_ImplOrdering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "impl before struct follows the struct",
			src:  "impl Foo {\n    fn make() -> Self { Foo }\n}\n\nstruct Foo;\n\nfn run() {}\n",
			want: []string{"Foo", "Foo.make", "run"},
		},
		{
			name: "impls split around the type keep source order",
			src:  "impl Foo {\n    fn a(&self) {}\n}\n\nenum Foo { X }\n\nimpl Foo {\n    fn b(&self) {}\n}\n",
			want: []string{"Foo", "Foo.a", "Foo.b"},
		},
		{
			name: "impl of a type declared elsewhere goes last",
			src:  "impl Display for Remote {\n    fn fmt(&self) {}\n}\n\npub fn run() {}\n",
			want: []string{"run", "Remote.fmt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := NewRustParser().Extract(context.Background(), []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, exportNames(result.Exports))
		})
	}
}
