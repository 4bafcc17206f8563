package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput = false
	ownerID = ""

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
	return out.String(), err
}

func TestWorkflowCmd(t *testing.T) {
	out, err := execute(t, "workflow", "Aprobada")
	require.NoError(t, err)
	assert.Contains(t, out, "(approved)")
	assert.Contains(t, out, "-> scheduled")
	assert.Contains(t, out, "-> cancelled")

	out, err = execute(t, "workflow", "pagado")
	require.NoError(t, err)
	assert.Contains(t, out, "no next step")
}

func TestWorkflowCmd_JSON(t *testing.T) {
	out, err := execute(t, "workflow", "draft", "--json")
	require.NoError(t, err)

	var got struct {
		Status string   `json:"status"`
		Manual []string `json:"manual"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "draft", got.Status)
	assert.Len(t, got.Manual, 8)
}

func TestSyncCmd_RequiresOwner(t *testing.T) {
	_, err := execute(t, "sync")
	assert.ErrorContains(t, err, "owner")
}
