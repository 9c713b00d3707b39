package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOrderedMap_SetKeepsPosition(t *testing.T) {
	var m OrderedMap[int]
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, m.Len())
}

func TestOrderedMap_Delete(t *testing.T) {
	var m OrderedMap[int]
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	m.Delete("b")
	m.Delete("missing")
	assert.Equal(t, []string{"a", "c"}, m.Keys())
	assert.False(t, m.Has("b"))

	m.Delete("a")
	m.Delete("c")
	assert.Equal(t, OrderedMap[int]{}, m, "empty map equals the zero value")
}

func TestOrderedMap_KeysIsACopy(t *testing.T) {
	var m OrderedMap[int]
	m.Set("a", 1)
	keys := m.Keys()
	keys[0] = "z"
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestOrderedMap_AllStopsEarly(t *testing.T) {
	var m OrderedMap[int]
	m.Set("a", 1)
	m.Set("b", 2)

	var seen []string
	for k := range m.All() {
		seen = append(seen, k)
		break
	}
	assert.Equal(t, []string{"a"}, seen)
}

func TestOrderedMap_JSONPreservesOrder(t *testing.T) {
	var m OrderedMap[int]
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":2,"mid":3}`, string(data))

	var back OrderedMap[int]
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestOrderedMap_JSONNullAndErrors(t *testing.T) {
	var m OrderedMap[int]
	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.Equal(t, 0, m.Len())

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"x"}`), &m))
}

func TestOrderedMap_YAMLPreservesOrder(t *testing.T) {
	var doc struct {
		Items OrderedMap[string] `yaml:"items"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("items:\n  z: one\n  a: two\n  m: three\n"), &doc))
	assert.Equal(t, []string{"z", "a", "m"}, doc.Items.Keys())

	assert.Error(t, yaml.Unmarshal([]byte("items: [a, b]\n"), &doc))
}

func TestOrderedMap_YAMLNullIsEmpty(t *testing.T) {
	var doc struct {
		Items OrderedMap[string] `yaml:"items"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("items:\n"), &doc))
	assert.Equal(t, 0, doc.Items.Len())
	assert.Empty(t, doc.Items.Keys())

	// A null value leaves an already decoded field untouched.
	require.NoError(t, yaml.Unmarshal([]byte("items:\n  a: one\n"), &doc))
	require.NoError(t, yaml.Unmarshal([]byte("items:\n"), &doc))
	assert.Equal(t, []string{"a"}, doc.Items.Keys())
}

func TestNodeList_Decoding(t *testing.T) {
	var fromYAMLList, fromYAMLString NodeList
	require.NoError(t, yaml.Unmarshal([]byte("[pve1, pve2]"), &fromYAMLList))
	require.NoError(t, yaml.Unmarshal([]byte(`"pve1, pve2"`), &fromYAMLString))
	assert.Equal(t, NodeList{"pve1", "pve2"}, fromYAMLList)
	assert.Equal(t, fromYAMLList, fromYAMLString)

	var fromJSONList, fromJSONString NodeList
	require.NoError(t, json.Unmarshal([]byte(`["pve1","pve2"]`), &fromJSONList))
	require.NoError(t, json.Unmarshal([]byte(`"pve1,pve2"`), &fromJSONString))
	assert.Equal(t, fromYAMLList, fromJSONList)
	assert.Equal(t, fromYAMLList, fromJSONString)

	assert.Equal(t, "pve1,pve2", fromJSONList.String())
	assert.Error(t, json.Unmarshal([]byte(`42`), &fromJSONList))
}

func TestStack_JSONRoundTrip(t *testing.T) {
	s := validStack()
	s.Instances.Set("c", InstanceSpec{Clone: 1, Tags: []string{"x", "y"}, DiskSize: "10G"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	back := NewStack()
	require.NoError(t, json.Unmarshal(data, back))
	assert.Equal(t, s, back)
}
