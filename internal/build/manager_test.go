package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTarget(t *testing.T) {
	cfg := newTestProject(t)

	cases := []struct {
		task, arg string
		wantName  string
	}{
		{"make", "imports", "imports"},
		{"make", "ontology", "ontology"},
		{"make", "", "ontology"},
		{"make", "release", "release"},
		{"errorcheck", "", "errorcheck"},
		{"update_base", "", "update_base"},
	}
	for _, c := range cases {
		target, err := GetTarget(cfg, c.task, c.arg, TargetFlags{})
		require.NoError(t, err, "GetTarget(%q, %q)", c.task, c.arg)
		assert.Equal(t, c.wantName, target.Name(), "GetTarget(%q, %q)", c.task, c.arg)
	}
}

func TestGetTargetUnknownTask(t *testing.T) {
	cfg := newTestProject(t)

	_, err := GetTarget(cfg, "deploy", "", TargetFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available build tasks")

	_, err = GetTarget(cfg, "make", "everything", TargetFlags{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available build tasks")
}

func TestTargetFlagsSelectVariants(t *testing.T) {
	cfg := newTestProject(t)

	target, err := GetTarget(cfg, "make", "ontology", TargetFlags{MergeImports: true, Reason: true})
	require.NoError(t, err)
	ont, ok := target.(*OntologyTarget)
	require.True(t, ok)
	assert.Contains(t, ont.OutputFilePath(), "-merged-reasoned")

	target, err = GetTarget(cfg, "make", "release", TargetFlags{ReleaseDate: "2026-08-23"})
	require.NoError(t, err)
	rel, ok := target.(*ReleaseTarget)
	require.True(t, ok)
	assert.Contains(t, rel.ReleaseDir(), "2026-08-23")
}
