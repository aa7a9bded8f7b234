package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-extract/internal/extractor/extraction"
)

func TestPhpParser_ImportsAndDeclarations(t *testing.T) {
	t.Parallel()

	src := `<?php
namespace App\Services;

use App\Models\User;
use Psr\Log\LoggerInterface as Logger;
require_once 'vendor/autoload.php';

const VERSION = '1.0';

interface Repository
{
    public function find(int $id): ?User;
}

class UserService
{
    public function __construct(private Logger $logger) {}

    public function find(int $id): ?User
    {
        return null;
    }
}

function helper(): void
{
}
`
	result, err := NewPhpParser().Extract(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "php", NewPhpParser().Lang())
	assert.Equal(t, []extraction.ImportRecord{
		{Source: `App\Models`, Specifiers: []string{"User"}},
		{Source: `Psr\Log`, Specifiers: []string{"LoggerInterface"}},
		{Source: "vendor/autoload.php", Specifiers: []string{"*"}},
	}, result.Imports)

	assert.Equal(t, []string{
		"VERSION",
		"Repository",
		"Repository.find",
		"UserService",
		"UserService.__construct",
		"UserService.find",
		"helper",
	}, exportNames(result.Exports))
	assert.Equal(t, extraction.KindVariable, result.Exports[0].Kind)
	assert.Equal(t, extraction.KindClass, result.Exports[3].Kind)
	assert.Equal(t, extraction.Location{Line: 15, Column: 0}, result.Exports[3].Loc)
	assert.Equal(t, extraction.KindFunction, result.Exports[6].Kind)
}

func TestPhpParser_BracketedNamespace(t *testing.T) {
	t.Parallel()

	src := `<?php
namespace Lib {
    function util() {}
    class Box {}
}
`
	result, err := NewPhpParser().Extract(context.Background(), []byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"util", "Box"}, exportNames(result.Exports))
}
