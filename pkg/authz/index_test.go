package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/permkit/pkg/authz"
	"github.com/dmitrymomot/permkit/pkg/hierarchy"
	"github.com/dmitrymomot/permkit/pkg/identifier"
)

func TestBuildIndex_Base(t *testing.T) {
	t.Parallel()

	cfg := authz.FormatConfig{PrimaryFormat: authz.FormatDotted}

	idx := authz.BuildIndex([]string{"inventory.read", "voucher_create", "crm:settings"}, cfg, hierarchy.Empty())

	// All spellings are stored canonically.
	assert.True(t, idx.Contains("inventory.read"))
	assert.True(t, idx.Contains("voucher.create"))
	assert.True(t, idx.Contains("crm.settings"))

	// Without compatibility the legacy spellings are not in the set.
	assert.False(t, idx.Contains("voucher_create"))
	assert.False(t, idx.Contains("inventory:read"))
}

func TestBuildIndex_DropsBadEntriesSilently(t *testing.T) {
	t.Parallel()

	cfg := authz.FormatConfig{PrimaryFormat: authz.FormatDotted}

	// One broken legacy string must not invalidate the rest of the set.
	idx := authz.BuildIndex([]string{"inventory.read", "???", "", "justoneword"}, cfg, hierarchy.Empty())

	assert.True(t, idx.Contains("inventory.read"))
	assert.Equal(t, []string{"inventory.read"}, idx.Members())
}

func TestBuildIndex_HierarchyExpansion(t *testing.T) {
	t.Parallel()

	g, err := hierarchy.Build(map[string][]string{
		"master_data.read": {"vendors.read", "products.read", "inventory.read"},
	})
	require.NoError(t, err)

	tests := []struct {
		name             string
		hierarchyEnabled bool
		wantExpanded     bool
	}{
		{name: "enabled unions descendants", hierarchyEnabled: true, wantExpanded: true},
		{name: "disabled keeps base set only", hierarchyEnabled: false, wantExpanded: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := authz.FormatConfig{HierarchyEnabled: tt.hierarchyEnabled}
			idx := authz.BuildIndex([]string{"master_data.read"}, cfg, g)

			assert.True(t, idx.Contains("master_data.read"))
			assert.Equal(t, tt.wantExpanded, idx.Contains("vendors.read"))
			assert.Equal(t, tt.wantExpanded, idx.Contains("inventory.read"))
			assert.False(t, idx.Contains("employees.read"))
		})
	}
}

func TestBuildIndex_CompatibilityAliases(t *testing.T) {
	t.Parallel()

	g, err := hierarchy.Build(map[string][]string{
		"master_data.read": {"vendors.read"},
	})
	require.NoError(t, err)

	cfg := authz.FormatConfig{
		CompatibilityEnabled: true,
		HierarchyEnabled:     true,
	}
	idx := authz.BuildIndex([]string{"master_data.read"}, cfg, g)

	// Aliases are derived for the expanded set, descendants included.
	assert.True(t, idx.Contains("master_data_read"))
	assert.True(t, idx.Contains("master_data:read"))
	assert.True(t, idx.Contains("vendors_read"))
	assert.True(t, idx.Contains("vendors:read"))
}

func TestBuildIndex_NilGraph(t *testing.T) {
	t.Parallel()

	cfg := authz.FormatConfig{HierarchyEnabled: true}
	idx := authz.BuildIndex([]string{"inventory.read"}, cfg, nil)

	assert.True(t, idx.Contains("inventory.read"))
	assert.Equal(t, 1, idx.Len())
}

func TestBuildIndex_WithNormalizer(t *testing.T) {
	t.Parallel()

	n := identifier.New(identifier.WithModules("master_data"))
	cfg := authz.FormatConfig{}

	idx := authz.BuildIndex(
		[]string{"master_data_read_only", "employees_read"},
		cfg, hierarchy.Empty(),
		authz.WithIndexNormalizer(n),
	)

	// The confirmed split survives; the ambiguous entry is dropped.
	assert.True(t, idx.Contains("master_data.read_only"))
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_NilSafe(t *testing.T) {
	t.Parallel()

	var idx *authz.Index
	assert.False(t, idx.Contains("inventory.read"))
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Members())
}
