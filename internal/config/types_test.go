package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInstanceSpec_DeepCopy(t *testing.T) {
	orig := InstanceSpec{Clone: 9000, Cores: 2, Tags: []string{"web"}}

	cp := orig.DeepCopy()
	assert.Equal(t, orig, cp)
	assert.Equal(t, 9000, cp.Clone)

	cp.Tags[0] = "db"
	assert.Equal(t, []string{"web"}, orig.Tags)
}

func TestInstanceSpec_CloneFieldDecodes(t *testing.T) {
	var spec InstanceSpec
	require.NoError(t, yaml.Unmarshal([]byte("clone: 9001\ncores: 4\n"), &spec))
	assert.Equal(t, 9001, spec.Clone)
	assert.Equal(t, 4, spec.Cores)
}

func TestStack_DeepCopy(t *testing.T) {
	s := NewStack()
	s.HaGroups.Set("prod", HaGroupSpec{Nodes: NodeList{"pve1", "pve2"}})
	s.Instances.Set("web", InstanceSpec{Clone: 9000, Tags: []string{"web"}})

	cp := s.DeepCopy()
	g, _ := cp.HaGroups.Get("prod")
	g.Nodes[0] = "pve9"
	cp.Instances.Set("db", InstanceSpec{Clone: 9000})

	orig, _ := s.HaGroups.Get("prod")
	assert.Equal(t, NodeList{"pve1", "pve2"}, orig.Nodes)
	assert.Equal(t, []string{"web"}, s.Instances.Keys())

	var nilStack *Stack
	assert.True(t, nilStack.DeepCopy().IsEmpty())
}
