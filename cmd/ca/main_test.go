package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateo/cloud-agent/internal/gitrepo"
)

func TestValidateRepoArgs(t *testing.T) {
	require.NoError(t, validateRepoArgs(nil))
	require.NoError(t, validateRepoArgs([]string{
		"git@github.com:org/repo.git",
		"https://github.com/org/repo.git",
	}))

	err := validateRepoArgs([]string{"not-a-url"})
	var invalid *gitrepo.InvalidURLError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "not-a-url", invalid.URL)
}
