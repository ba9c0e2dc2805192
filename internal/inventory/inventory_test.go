package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aescanero/dago-node-fields/internal/inventory"
)

const sampleInventory = `
hosts:
  web1.example.com:
    vars:
      http_port: 8080
      tags:
        - frontend
  db1.example.com:
    vars:
      role: primary
groups:
  web:
    hosts: [web1.example.com, web2.example.com]
    vars:
      os_family: debian
  prod:
    hosts: [web1.example.com, db1.example.com]
    vars:
      env: production
`

func TestLoadBytes(t *testing.T) {
	inv, err := inventory.LoadBytes([]byte(sampleInventory))
	require.NoError(t, err)

	hosts := inv.Hosts()
	require.Len(t, hosts, 3)
	assert.Equal(t, "db1.example.com", hosts[0].Name())
	assert.Equal(t, "web1.example.com", hosts[1].Name())
	assert.Equal(t, "web2.example.com", hosts[2].Name())

	web1, ok := inv.Host("web1.example.com")
	require.True(t, ok)
	assert.Equal(t, 8080, web1.Variables()["http_port"])
	assert.Equal(t, []string{"prod", "web"}, web1.GroupNames())

	web2, ok := inv.Host("web2.example.com")
	require.True(t, ok)
	assert.Empty(t, web2.Variables())
	assert.Equal(t, []string{"web"}, web2.GroupNames())
	assert.Equal(t, "debian", web2.Groups()[0].Variables()["os_family"])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleInventory), 0o600))

	inv, err := inventory.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, inv.Hosts(), 3)

	_, err = inventory.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInventory_Select(t *testing.T) {
	inv, err := inventory.LoadBytes([]byte(sampleInventory))
	require.NoError(t, err)

	tests := []struct {
		name    string
		names   []string
		want    []string
		wantErr bool
	}{
		{name: "all hosts", names: nil, want: []string{"db1.example.com", "web1.example.com", "web2.example.com"}},
		{name: "single host", names: []string{"db1.example.com"}, want: []string{"db1.example.com"}},
		{name: "group", names: []string{"web"}, want: []string{"web1.example.com", "web2.example.com"}},
		{name: "deduplicates", names: []string{"web1.example.com", "prod"}, want: []string{"web1.example.com", "db1.example.com"}},
		{name: "unknown", names: []string{"nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hosts, err := inv.Select(tt.names)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			names := make([]string, len(hosts))
			for i, host := range hosts {
				names[i] = host.Name()
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestHost_VariablesAreCopies(t *testing.T) {
	host := inventory.NewHost("a", map[string]interface{}{
		"nested": map[string]interface{}{"k": "v"},
	})

	vars := host.Variables()
	vars["nested"].(map[string]interface{})["k"] = "changed"
	vars["added"] = true

	again := host.Variables()
	assert.Equal(t, "v", again["nested"].(map[string]interface{})["k"])
	assert.NotContains(t, again, "added")
}

func TestHost_SetFactsCopiesNestedValues(t *testing.T) {
	host := inventory.NewHost("a", nil)
	facts := map[string]interface{}{
		"interfaces": []interface{}{map[string]interface{}{"name": "eth0"}},
		"mounts":     []string{"/", "/var"},
	}

	host.SetFacts(facts)
	facts["interfaces"].([]interface{})[0].(map[string]interface{})["name"] = "changed"
	facts["mounts"].([]string)[0] = "/changed"

	got := host.Facts()
	assert.Equal(t, "eth0", got["interfaces"].([]interface{})[0].(map[string]interface{})["name"])
	assert.Equal(t, []string{"/", "/var"}, got["mounts"])

	host.SetFacts(nil)
	assert.Empty(t, host.Facts())
}

func TestInventory_GroupMembers(t *testing.T) {
	inv := inventory.New()
	a := inventory.NewHost("a", nil)
	b := inventory.NewHost("b", nil)
	inv.AddGroup(inventory.NewGroup("web", nil), b, a)
	inv.AddGroup(inventory.NewGroup("empty", nil))

	members := inv.GroupMembers()
	assert.Equal(t, []string{"a", "b"}, members["web"])
	assert.Equal(t, []string{}, members["empty"])
}
