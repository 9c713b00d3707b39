package handlers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/store"
	testutil "github.com/imamik/proxcli/internal/testing"
)

const testDefaults = `
instance_template:
  clone: 9000
  full_clone: false
  target: pve1
  cores: 1
  memory: 512
  disk_size: 10G
  disk_device: scsi0
  tags: []
ha_group_template:
  nodes: [pve1, pve2]
  restricted: false
  nofailback: false
  max_restart: 1
  max_relocate: 1
`

const testStacks = `
stacks:
  lab:
    ha_groups:
      prod:
    instances:
      web:
        ipsequence: true
        count: 2
        ipconfig: ip=10.0.0.5/24,gw=10.0.0.1
        ha_group: prod
        tags: [web]
`

// testEnv replaces every factory with in-memory collaborators.
type testEnv struct {
	cluster *testutil.FakeCluster
	store   *store.Store
	out     *bytes.Buffer
	dir     string
	opts    StackOptions
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		cluster: testutil.NewFakeCluster().WithTemplate(9000, "debian-12"),
		store:   store.New(store.NewFileBackend(filepath.Join(dir, "state"))),
		out:     &bytes.Buffer{},
		dir:     dir,
		opts: StackOptions{
			ConfigPath:   filepath.Join(dir, config.DefaultConfigFilename),
			DefaultsPath: filepath.Join(dir, config.DefaultDefaultsFilename),
			AutoApprove:  true,
		},
	}
	env.writeStacks(t, testStacks)
	require.NoError(t, os.WriteFile(env.opts.DefaultsPath, []byte(testDefaults), 0o600))

	origPath, origLoad, origClient := clientConfigPath, loadClientConfig, newClusterClient
	origStore, origConfirm, origInteractive, origStdout := openStore, confirm, interactive, stdout
	t.Cleanup(func() {
		clientConfigPath, loadClientConfig, newClusterClient = origPath, origLoad, origClient
		openStore, confirm, interactive, stdout = origStore, origConfirm, origInteractive, origStdout
	})

	clientConfigPath = func() string { return filepath.Join(dir, "config.yaml") }
	loadClientConfig = func(string) (*config.ClientConfig, error) {
		return &config.ClientConfig{Hosts: []string{"pve1"}, User: "root@pam", Password: "x"}, nil
	}
	newClusterClient = func(*config.ClientConfig) proxmox.ClusterClient { return env.cluster }
	openStore = func(context.Context, zerolog.Logger) (*store.Store, error) { return env.store, nil }
	confirm = func(context.Context, string, string) (bool, error) {
		t.Fatal("unexpected confirmation prompt")
		return false, nil
	}
	interactive = func() bool { return false }
	stdout = env.out
	return env
}

func (e *testEnv) writeStacks(t *testing.T, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.opts.ConfigPath, []byte(doc), 0o600))
}
