package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "structs": {
    "Pair": [
      {"name": "fst", "typ": "Int"},
      {"name": "snd", "typ": {"Pointer": "Int"}}
    ]
  },
  "globals": [
    {"name": "g", "typ": "Int"}
  ],
  "functions": {
    "test": {
      "ret_ty": "Int",
      "params": [{"name": "n", "typ": "Int"}],
      "locals": {
        "a": {"name": "a", "typ": "Int"},
        "p": {"name": "p", "typ": {"Pointer": "Int"}}
      },
      "body": {
        "entry": {
          "insts": [
            {"Copy": {"lhs": {"name": "a", "typ": "Int"}, "op": {"CInt": 3}}}
          ],
          "term": {"Ret": {"Var": {"name": "a", "typ": "Int"}}}
        }
      }
    }
  }
}`

func TestLirStatsCommand(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "prog.lir.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(fixture), 0o600))

	var out bytes.Buffer
	cmd := newLirStatsCmd(&out)
	cmd.SetArgs([]string{jsonPath})
	require.NoError(t, cmd.Execute())

	assert.Equal(t,
		"Number of fields across all struct types: 2\n"+
			"Number of functions that return a value: 1\n"+
			"Number of function parameters: 1\n"+
			"Number of local variables: 2\n"+
			"Number of basic blocks: 1\n"+
			"Number of instructions: 1\n"+
			"Number of terminals: 1\n"+
			"Number of int locals/globals: 2\n"+
			"Number of struct locals/globals: 0\n"+
			"Number of int pointer locals/globals: 1\n"+
			"Number of struct pointer locals/globals: 0\n"+
			"Number of function pointer locals/globals: 0\n"+
			"Number of pointer pointer locals/globals: 0\n",
		out.String())
}

func TestLirStatsMissingFile(t *testing.T) {
	var out bytes.Buffer
	cmd := newLirStatsCmd(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope.json")})
	assert.Error(t, cmd.Execute())
}
