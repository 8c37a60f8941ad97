package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zkfl/zkptoolkit/crypto/zkerr"
)

func execute(dir string, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))

	err := rootCmd.Execute()
	if Service != nil {
		Service.Close()
		Service = nil
	}
	return out.String(), err
}

func run(t *testing.T, dir string, args ...string) string {
	out, err := execute(dir, args...)
	require.NoError(t, err, out)
	return out
}

func runErr(t *testing.T, dir string, args ...string) error {
	out, err := execute(dir, args...)
	require.Error(t, err, out)
	return err
}

func field(t *testing.T, out string, name string) string {
	m := regexp.MustCompile(name + `: (\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}

func TestEndToEnd(t *testing.T) {
	work := t.TempDir()
	dir := filepath.Join(work, ".config")

	out := run(t, dir, "keygen", "alice", "--mnemonic=false", "--restore=")
	pk := field(t, out, "Public key")

	out = run(t, dir, "identity", "register", "alice", pk)
	assert.Contains(t, out, "Registered alice")
	out = run(t, dir, "identity", "list")
	assert.Contains(t, out, pk)

	out = run(t, dir, "challenge", "issue", pk, "--round", "3")
	challenge := field(t, out, "Challenge")

	out = run(t, dir, "schnorr", "prove", challenge, "--identity", "alice")
	proof := regexp.MustCompile(`\S+`).FindString(out)
	out = run(t, dir, "schnorr", "verify", pk, proof, challenge)
	assert.Equal(t, "true\n", out)
	out = run(t, dir, "schnorr", "verify", pk, proof, "0x00")
	assert.Equal(t, "false\n", out)

	step := filepath.Join(work, "step.yml")
	require.NoError(t, os.WriteFile(step, []byte(
		"weights: [1, 2]\n"+
			"features: [[1, 0], [0, 1]]\n"+
			"labels: [3, 1]\n"+
			"stepNum: 1\n"+
			"stepDen: 2\n",
	), 0600))

	trace := filepath.Join(work, "trace.cbor")
	out = run(t, dir, "trace", "gradient", step, "-o", trace)
	shape := field(t, out, "Shape")

	// statements over an unpinned circuit are refused
	err := runErr(t, dir, "statement", "prove", trace, "-o", filepath.Join(work, "unpinned.zkfl"))
	assert.ErrorIs(t, err, zkerr.ErrShapeMismatch)

	out = run(t, dir, "circuit", "pin",
		"--dimension", "2", "--batch-size", "2", "--step-num", "1", "--step-den", "2")
	assert.Equal(t, shape, field(t, out, "Pinned"))
	out = run(t, dir, "circuit", "list")
	assert.Contains(t, out, shape)

	var proofs []string
	var publicInstance string
	for i := 0; i < 2; i++ {
		path := filepath.Join(work, "proof"+string(rune('a'+i))+".zkfl")
		out = run(t, dir, "statement", "prove", trace, trace, "-o", path)
		publicInstance = field(t, out, "Public instance")
		proofs = append(proofs, path)
	}

	out = run(t, dir, "statement", "verify", proofs[1], publicInstance)
	assert.Equal(t, "true\n", out)

	agg := filepath.Join(work, "agg.zkfl")
	out = run(t, dir, append([]string{"aggregate", "--round", "5", "-o", agg}, proofs...)...)
	assert.Contains(t, out, "2 proofs")

	out = run(t, dir, "verify-aggregate", agg)
	assert.Equal(t, "true\n", out)
	out = run(t, dir, "verify-aggregate")
	assert.Contains(t, out, "Round: 5")
	assert.Contains(t, out, "true")
}

func TestVersion(t *testing.T) {
	out := run(t, filepath.Join(t.TempDir(), ".config"), "version")
	assert.Contains(t, out, "Version: 1.0.0")
	assert.Contains(t, out, "Minimum encoding version: 1.0.0")
}

func TestKeygenPassphrasePrompt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".config")

	out := run(t, dir, "keygen", "bob", "--mnemonic", "--restore=")
	m := regexp.MustCompile(`Mnemonic: (.+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	phrase := m[1]

	rootCmd.SetIn(strings.NewReader("hunter2\n"))
	t.Cleanup(func() { rootCmd.SetIn(nil) })
	out = run(t, dir, "keygen", "carol",
		"--mnemonic=false", "--restore", phrase, "--passphrase-prompt")
	prompted := field(t, out, "Public key")

	out = run(t, dir, "keygen", "dave",
		"--restore", phrase, "--passphrase", "hunter2", "--passphrase-prompt=false")
	assert.Equal(t, prompted, field(t, out, "Public key"))

	out = run(t, dir, "keygen", "erin",
		"--restore", phrase, "--passphrase", "", "--passphrase-prompt=false")
	assert.NotEqual(t, prompted, field(t, out, "Public key"))
}
