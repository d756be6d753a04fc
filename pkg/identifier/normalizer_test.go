package identifier_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/permkit/pkg/identifier"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    identifier.Identifier
		wantErr error
	}{
		{
			name: "canonical dotted unchanged",
			raw:  "inventory.read",
			want: "inventory.read",
		},
		{
			name: "nested dotted unchanged",
			raw:  "crm.commission.read",
			want: "crm.commission.read",
		},
		{
			name: "dotted is lower-cased",
			raw:  "Inventory.Read",
			want: "inventory.read",
		},
		{
			name: "colon split on first colon",
			raw:  "inventory:read",
			want: "inventory.read",
		},
		{
			name: "colon alias of nested identifier",
			raw:  "crm:commission.read",
			want: "crm.commission.read",
		},
		{
			name: "single underscore split",
			raw:  "voucher_create",
			want: "voucher.create",
		},
		{
			name: "multi underscore splits at last underscore",
			raw:  "master_data_delete",
			want: "master_data.delete",
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  inventory.read  ",
			want: "inventory.read",
		},
		{
			name:    "empty input rejected",
			raw:     "",
			wantErr: identifier.ErrInvalidIdentifier,
		},
		{
			name:    "bare word has no boundary",
			raw:     "inventory",
			wantErr: identifier.ErrInvalidIdentifier,
		},
		{
			name:    "illegal characters rejected",
			raw:     "inventory.read!",
			wantErr: identifier.ErrInvalidIdentifier,
		},
		{
			name:    "empty action rejected",
			raw:     "inventory:",
			wantErr: identifier.ErrInvalidIdentifier,
		},
		{
			name:    "empty module rejected",
			raw:     ":read",
			wantErr: identifier.ErrInvalidIdentifier,
		},
		{
			name:    "empty dotted segment rejected",
			raw:     "inventory..read",
			wantErr: identifier.ErrInvalidIdentifier,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := identifier.Normalize(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_FormatsConverge(t *testing.T) {
	t.Parallel()

	// All three accepted spellings of the same permission canonicalize to
	// the identical dotted identifier.
	for _, raw := range []string{"inventory_read", "inventory.read", "inventory:read"} {
		got, err := identifier.Normalize(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, identifier.Identifier("inventory.read"), got, raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"inventory_read",
		"voucher:create",
		"master_data_delete",
		"crm.commission.read",
	} {
		first, err := identifier.Normalize(raw)
		require.NoError(t, err, raw)

		second, err := identifier.Normalize(first.String())
		require.NoError(t, err, raw)
		assert.Equal(t, first, second, raw)
	}
}

func TestNormalizer_ModuleTable(t *testing.T) {
	t.Parallel()

	n := identifier.New(identifier.WithModules("master_data", "voucher", "crm.commission"))

	tests := []struct {
		name    string
		raw     string
		want    identifier.Identifier
		wantErr error
	}{
		{
			name: "confirmed multi-token module",
			raw:  "master_data_delete",
			want: "master_data.delete",
		},
		{
			name: "multi-token action after confirmed module",
			raw:  "master_data_read_only",
			want: "master_data.read_only",
		},
		{
			name: "single-token module confirmed",
			raw:  "voucher_create",
			want: "voucher.create",
		},
		{
			name: "dotted module registered as table entry",
			raw:  "crm_commission_read",
			want: "crm.commission.read",
		},
		{
			name:    "unconfirmed boundary is ambiguous",
			raw:     "employees_read",
			wantErr: identifier.ErrAmbiguousFormat,
		},
		{
			name: "dotted input bypasses the table",
			raw:  "employees.read",
			want: "employees.read",
		},
		{
			name: "colon input bypasses the table",
			raw:  "employees:read",
			want: "employees.read",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := n.Normalize(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_LongestModuleWins(t *testing.T) {
	t.Parallel()

	// Both "master" and "master_data" are known; the longer prefix must win
	// so the action does not swallow part of the module name.
	n := identifier.New(identifier.WithModules("master", "master_data"))

	got, err := n.Normalize("master_data_delete")
	require.NoError(t, err)
	assert.Equal(t, identifier.Identifier("master_data.delete"), got)
}
