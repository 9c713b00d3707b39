package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDefaults = `
instance_template:
  clone: 9000
  full_clone: false
  disk_storage: local-lvm
  target: pve1
  cores: 2
  memory: 2048
  user: ubuntu
  password: secret
  sshkey: ~/.ssh/id_ed25519.pub
  disk_size: 20G
  disk_device: scsi0
  tags: [managed]
ha_group_template:
  nodes: [pve1, pve2]
  restricted: false
  nofailback: true
  max_restart: 1
  max_relocate: 1
`

const testStacks = `
stacks:
  web:
    ha_groups:
      primary:
        nodes: pve1,pve3
      backup:
    instances:
      lb:
        cores: 4
        ipconfig: ip=10.0.0.2/24,gw=10.0.0.1
        ha_group: primary
      app:
        ipsequence: true
        count: 3
        ipconfig: ip=10.0.0.5/24,gw=10.0.0.1
        tags: [app, web]
  db:
    instances:
      pg:
        memory: 8192
        ipconfig: ip=10.0.1.2/24,gw=10.0.1.1
`

func writeFiles(t *testing.T, stacks, defaults string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, DefaultConfigFilename)
	defaultsPath := filepath.Join(dir, DefaultDefaultsFilename)
	require.NoError(t, os.WriteFile(configPath, []byte(stacks), 0o600))
	require.NoError(t, os.WriteFile(defaultsPath, []byte(defaults), 0o600))
	return configPath, defaultsPath
}

func TestLoad(t *testing.T) {
	configPath, defaultsPath := writeFiles(t, testStacks, testDefaults)

	cfg, err := Load(configPath, defaultsPath)
	require.NoError(t, err)

	assert.Equal(t, []string{"web", "db"}, cfg.Stacks.Keys())

	web, err := cfg.Stack("web")
	require.NoError(t, err)

	assert.Equal(t, []string{"primary", "backup"}, web.HaGroups.Keys())
	primary, _ := web.HaGroups.Get("primary")
	assert.Equal(t, NodeList{"pve1", "pve3"}, primary.Nodes)
	assert.True(t, primary.NoFailback, "template value kept")

	backup, _ := web.HaGroups.Get("backup")
	assert.Equal(t, NodeList{"pve1", "pve2"}, backup.Nodes, "null body takes all defaults")

	assert.Equal(t, []string{"lb", "app-0", "app-1", "app-2"}, web.Instances.Keys())

	lb, _ := web.Instances.Get("lb")
	assert.Equal(t, 4, lb.Cores, "instance overrides template")
	assert.Equal(t, 2048, lb.Memory, "template fills missing keys")
	assert.Equal(t, []string{"managed"}, lb.Tags)

	app1, _ := web.Instances.Get("app-1")
	assert.Equal(t, []string{"app", "web"}, app1.Tags, "shallow merge replaces lists")
	assert.Equal(t, "ip=10.0.0.6/24,gw=10.0.0.1", app1.IPConfig)
}

func TestLoad_UnknownStack(t *testing.T) {
	configPath, defaultsPath := writeFiles(t, testStacks, testDefaults)

	cfg, err := Load(configPath, defaultsPath)
	require.NoError(t, err)

	_, err = cfg.Stack("missing")
	var unknown *UnknownStackError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"web", "db"}, unknown.Known)
	assert.True(t, IsConfigError(err))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		stacks   string
		defaults string
		contains string
	}{
		{
			name:     "missing instance template",
			stacks:   testStacks,
			defaults: "ha_group_template: {}\n",
			contains: `missing key "instance_template"`,
		},
		{
			name:     "missing ha group template",
			stacks:   testStacks,
			defaults: "instance_template: {}\n",
			contains: `missing key "ha_group_template"`,
		},
		{
			name:     "malformed stacks yaml",
			stacks:   "stacks: [unclosed",
			defaults: testDefaults,
			contains: "failed to unmarshal yaml",
		},
		{
			name:     "unknown instance key",
			stacks:   "stacks:\n  s:\n    instances:\n      a:\n        cpus: 2\n",
			defaults: testDefaults,
			contains: `instance "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath, defaultsPath := writeFiles(t, tt.stacks, tt.defaults)
			_, err := Load(configPath, defaultsPath)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.contains)
			assert.NotEmpty(t, loadErr.Path)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, defaultsPath := writeFiles(t, testStacks, testDefaults)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), defaultsPath)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_ValidationFailure(t *testing.T) {
	stacks := `
stacks:
  s:
    instances:
      a:
        ha_group: ghost
`
	configPath, defaultsPath := writeFiles(t, stacks, testDefaults)

	_, err := Load(configPath, defaultsPath)
	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Equal(t, "ha_group", validErr.Field)
	assert.True(t, IsConfigError(err))
}

func TestMerge(t *testing.T) {
	template := map[string]any{"cores": 2, "memory": 1024, "tags": []any{"a"}}
	entity := map[string]any{"cores": 8, "tags": []any{"b", "c"}}

	merged := Merge(template, entity)

	assert.Equal(t, map[string]any{"cores": 8, "memory": 1024, "tags": []any{"b", "c"}}, merged)
	assert.Equal(t, 2, template["cores"], "template is not modified")
}

func TestMerge_NilInputs(t *testing.T) {
	assert.Equal(t, map[string]any{}, Merge(nil, nil))
	assert.Equal(t, map[string]any{"a": 1}, Merge(nil, map[string]any{"a": 1}))
}
