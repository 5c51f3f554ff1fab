package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ortelius/gost-sbom/model"
)

func withFiles(t *testing.T, files map[string]string) {
	t.Helper()
	mem := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(mem, name, []byte(content), 0o644))
	}
	saved := fs
	fs = mem
	t.Cleanup(func() { fs = saved })
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	withFiles(t, map[string]string{
		"good.json": `{"bomFormat": "CycloneDX", "specVersion": "1.6", "components": [{"type": "library", "name": "a"}]}`,
		"bad.json":  `{"bomFormat": "SPDX", "specVersion": "1.6", "components": []}`,
		"policy.yaml": `vcs:
  default_severity: error
`,
	})

	out, err := run("validate", "good.json")
	require.NoError(t, err)
	var result model.ValidateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Valid)

	out, err = run("validate", "bad.json")
	assert.ErrorIs(t, err, errInvalid)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Valid)

	_, err = run("validate", "--policy", "policy.yaml", "good.json")
	assert.ErrorIs(t, err, errInvalid)

	_, err = run("validate", "missing.json")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, errInvalid)

	_, err = run("validate", "--policy", "polcy.yaml", "good.json")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateCommand_PolicyFromEnvironment(t *testing.T) {
	withFiles(t, map[string]string{
		"good.json":   `{"bomFormat": "CycloneDX", "specVersion": "1.6", "components": [{"type": "library", "name": "a"}]}`,
		"strict.yaml": "vcs:\n  default_severity: error\n",
	})
	t.Setenv("POLICY_FILE", "strict.yaml")

	out, err := run("validate", "good.json")
	assert.ErrorIs(t, err, errInvalid)

	var result model.ValidateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, model.LevelError, result.Issues[len(result.Issues)-1].Level)
}

func TestUnifyCommand(t *testing.T) {
	withFiles(t, map[string]string{
		"a.json": `{"bomFormat": "CycloneDX", "specVersion": "1.6", "components": [{"type": "library", "name": "a"}]}`,
		"b.json": `{"bomFormat": "CycloneDX", "specVersion": "1.5", "components": [{"type": "library", "name": "b"}]}`,
	})

	_, err := run("unify", "a.json")
	assert.Error(t, err)

	_, err = run("unify", "--name", "Shop", "--version", "2.0", "-o", "out.json", "a.json", "b.json")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "out.json")
	require.NoError(t, err)
	doc, err := model.ParseDocument(data)
	require.NoError(t, err)
	require.NotNil(t, doc.Metadata.Component)
	assert.Equal(t, "Shop", doc.Metadata.Component.Name)
	assert.Equal(t, "2.0", doc.Metadata.Component.Version)
	assert.Len(t, doc.ComponentList(), 2)
}

func TestSubmitCommand_RequiresProject(t *testing.T) {
	withFiles(t, map[string]string{"a.json": `{}`})

	_, err := run("submit", "--project", "nope", "a.json")
	assert.Error(t, err)
}
