package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

// Test Plan for C extraction:
// - includes of both forms become whole-header imports
// - header guards do not hide declarations
// - functions, aggregates, typedefs and globals are classified; prototypes are not

func TestCParser_IncludesAndDeclarations(t *testing.T) {
	t.Parallel()

	src := `#ifndef POINT_H
#define POINT_H

#include <stdio.h>
#include "util.h"

struct Point {
    int x;
    int y;
};

typedef struct {
    double w;
} Size;

typedef struct Node {
    struct Node *next;
} Node;

enum Color { RED, GREEN };

struct Forward;

int counter = 0;
static const char *names[4];

int add(int a, int b);

int add(int a, int b) {
    int local = a + b;
    return local;
}

static char *dup(const char *s) {
    return 0;
}

#endif
`
	result, err := NewCParser().Extract(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "c", NewCParser().Lang())
	assert.Equal(t, []extraction.ImportRecord{
		{Source: "stdio.h", Specifiers: []string{"*"}},
		{Source: "util.h", Specifiers: []string{"*"}},
	}, result.Imports)

	assert.Equal(t, []string{
		"Point",
		"Size",
		"Node",
		"Color",
		"counter",
		"names",
		"add",
		"dup",
	}, exportNames(result.Exports))

	kinds := map[string]extraction.Kind{}
	for _, e := range result.Exports {
		kinds[e.Name] = e.Kind
	}
	assert.Equal(t, extraction.KindClass, kinds["Point"])
	assert.Equal(t, extraction.KindClass, kinds["Size"])
	assert.Equal(t, extraction.KindClass, kinds["Color"])
	assert.Equal(t, extraction.KindVariable, kinds["counter"])
	assert.Equal(t, extraction.KindVariable, kinds["names"])
	assert.Equal(t, extraction.KindFunction, kinds["add"])
	assert.Equal(t, extraction.KindFunction, kinds["dup"])

	assert.Equal(t, extraction.Location{Line: 7, Column: 0}, result.Exports[0].Loc)
	assert.Equal(t, extraction.Location{Line: 24, Column: 4}, result.Exports[4].Loc)
}

func TestCParser_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := NewCParser().Extract(context.Background(), []byte("int main( {\n"))
	require.Error(t, err)
	assert.True(t, extraction.IsSyntaxError(err))
}
