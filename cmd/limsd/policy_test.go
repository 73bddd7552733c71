package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bactolab/lims/internal/core/domain"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckCmd_Allowed(t *testing.T) {
	out, err := execute("check", "--role", "bioanalyst", "--resource", "results", "--action", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "allowed: BIOANALYST may validate results")
}

func TestCheckCmd_Denied(t *testing.T) {
	out, err := execute("check", "--role", "LAB_ASSISTANT", "--resource", "results", "--action", "validate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errDenied))
	assert.Contains(t, out, "denied: LAB_ASSISTANT may not validate results")
}

func TestCheckCmd_UnknownValues(t *testing.T) {
	_, err := execute("check", "--role", "ROOT", "--resource", "results", "--action", "read")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = execute("check", "--role", "ADMIN", "--resource", "invoices", "--action", "read")
	assert.ErrorIs(t, err, domain.ErrInvalidResource)

	_, err = execute("check", "--role", "ADMIN", "--resource", "results", "--action", "approve")
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestCheckCmd_RequiresFlags(t *testing.T) {
	_, err := execute("check", "--role", "ADMIN")
	assert.Error(t, err)
}

func TestPermissionsCmd_AllRoles(t *testing.T) {
	out, err := execute("permissions")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 1+len(domain.Roles())*len(domain.Resources()))
	assert.Contains(t, out, "ADMIN")
	assert.Contains(t, out, "LAB_ASSISTANT")
}

func TestPermissionsCmd_SingleRole(t *testing.T) {
	out, err := execute("permissions", "--role", "lab_assistant")
	require.NoError(t, err)

	assert.NotContains(t, out, "BIOANALYST")
	var settings string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "settings") {
			settings = line
		}
	}
	assert.True(t, strings.HasSuffix(strings.TrimSpace(settings), "-"), "settings row should be empty: %q", settings)
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute("--version")
	require.NoError(t, err)
	assert.Contains(t, out, version)
}
