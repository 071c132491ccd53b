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
  "functions": {
    "test": {
      "ret_ty": "Int",
      "params": [],
      "locals": {
        "a": {"name": "a", "typ": "Int"},
        "b": {"name": "b", "typ": "Int"}
      },
      "body": {
        "entry": {
          "insts": [
            {"Copy": {"lhs": {"name": "a", "typ": "Int"}, "op": {"CInt": 3}}},
            {"Arith": {"lhs": {"name": "b", "typ": "Int"}, "aop": "add", "op1": {"Var": {"name": "a", "typ": "Int"}}, "op2": {"CInt": 4}}}
          ],
          "term": {"Ret": {"Var": {"name": "b", "typ": "Int"}}}
        }
      }
    }
  }
}`

func TestConstantAnalysisCommand(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "prog.lir.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(fixture), 0o600))

	var out bytes.Buffer
	cmd := newConstantAnalysisCmd(&out)
	cmd.SetArgs([]string{filepath.Join(dir, "prog.lir"), jsonPath, "test"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "entry:\n  a -> 3\n  b -> 7\n\n", out.String())
}

func TestConstantAnalysisUnknownFunction(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "prog.lir.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(fixture), 0o600))

	var out bytes.Buffer
	cmd := newConstantAnalysisCmd(&out)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{filepath.Join(dir, "prog.lir"), jsonPath, "nope"})
	assert.Error(t, cmd.Execute())
}
