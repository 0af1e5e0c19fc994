package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	otopFilename = "2024-05-12_Jogging de Namur_Namur_SH_10km.csv"
	otopCSV      = `Pl.;Dos;Nom;Sexe;Cat.;Club;Temps;Vitesse;min/km
1;101;DUPONT Jean;H;SH;AC Namur;0:35:10;17,06;3:31
2;102;LAMBERT Anne;D;SD;;0:41:02;14,62;4:06
`
	rosterYAML = `members:
  - first_name: Anne
    last_name: Lambert
`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	rosterPath, logLevel = "", "warn"
	classifyJSON, classifyDistance, classifyRace, classifyTop = false, 0, "", 50
	parseShowDetection = false

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["parse"])
	assert.True(t, names["classify"])
	assert.True(t, names["submit"])

	f := rootCmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, f)
	assert.Equal(t, "warn", f.DefValue)
	require.NotNil(t, rootCmd.PersistentFlags().ShorthandLookup("r"))
}

func TestParseCommand_Args(t *testing.T) {
	assert.Error(t, parseCmd.Args(parseCmd, []string{}))
	assert.NoError(t, parseCmd.Args(parseCmd, []string{"a.csv"}))
	assert.Error(t, parseCmd.Args(parseCmd, []string{"a.csv", "b.csv"}))
}

func TestParseCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), otopFilename, otopCSV)

	stdout, stderr, err := execute(t, "parse", "--detection", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, strings.ToLower(stdout), "lambert")
	assert.Contains(t, stderr, "layout=")
}

func TestParseCommand_MissingFile(t *testing.T) {
	_, _, err := execute(t, "parse", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestClassifyCommand_Flags(t *testing.T) {
	for _, name := range []string{"distance", "race", "top", "json"} {
		assert.NotNil(t, classifyCmd.Flags().Lookup(name), name)
	}
	assert.Error(t, classifyCmd.Args(classifyCmd, []string{}))
	assert.NoError(t, classifyCmd.Args(classifyCmd, []string{"a.csv", "b.csv"}))
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, otopFilename, otopCSV)
	rosterFile := writeFile(t, dir, "roster.yaml", rosterYAML)

	t.Run("table", func(t *testing.T) {
		stdout, _, err := execute(t, "classify", "--roster", rosterFile, path)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Lambert Anne")
		assert.Contains(t, stdout, "857")
		assert.Contains(t, stdout, "member")
	})

	t.Run("json", func(t *testing.T) {
		stdout, _, err := execute(t, "classify", "--json", "--roster", rosterFile, path)
		require.NoError(t, err)

		var out classifyOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		require.NotEmpty(t, out.Standings)

		var lambert bool
		for _, s := range out.Standings {
			if s.LastName == "Lambert" {
				lambert = true
				assert.Equal(t, 857, s.Points)
				assert.Equal(t, 10, s.BonusKm)
			}
		}
		assert.True(t, lambert)
	})

	t.Run("missing roster", func(t *testing.T) {
		_, _, err := execute(t, "classify", "--roster", filepath.Join(dir, "none.yaml"), path)
		assert.Error(t, err)
	})
}

func TestSubmitCommand_Flags(t *testing.T) {
	f := submitCmd.Flags().Lookup("url")
	require.NotNil(t, f)
	assert.Equal(t, "http://localhost:9080", f.DefValue)
	assert.NotNil(t, submitCmd.Flags().Lookup("wait"))
	assert.Error(t, submitCmd.Args(submitCmd, []string{}))
}

func TestSubmitCommand_EmptyDir(t *testing.T) {
	_, _, err := execute(t, "submit", "--url", "http://127.0.0.1:1", t.TempDir())
	assert.Error(t, err)
}
