package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnDefSQL(t *testing.T) {
	assert.Equal(t, "alias String", ColumnDef{Name: "alias", Type: "String"}.SQL())
	assert.Equal(t, "body String CODEC(ZSTD(1))",
		ColumnDef{Name: "body", Type: "String", Codec: "ZSTD(1)"}.SQL())
}

func TestColumnDefValidate(t *testing.T) {
	assert.NoError(t, ColumnDef{Name: "a", Type: "String"}.Validate())
	assert.Error(t, ColumnDef{Type: "String"}.Validate())
	assert.Error(t, ColumnDef{Name: "a"}.Validate())
}

func TestColumnsToSchemaSQL(t *testing.T) {
	schema := ColumnsToSchemaSQL([]ColumnDef{
		{Name: "alias", Type: "String"},
		{Name: "deleted", Type: "UInt8"},
	})
	assert.Contains(t, schema, "alias String")
	assert.Contains(t, schema, "deleted UInt8")
}

func TestColumnsToNameList(t *testing.T) {
	names := ColumnsToNameList(AliasColumns)
	assert.Equal(t, []string{"alias", "canonical", "deleted", "updated_at"}, names)
}

// Table schemas are the contract with the insert paths; every declared column
// list must validate.
func TestDeclaredSchemasValidate(t *testing.T) {
	for name, cols := range map[string][]ColumnDef{
		AliasesTableName:       AliasColumns,
		OverridesTableName:     OverrideColumns,
		ExcludedDatesTableName: ExcludedDateColumns,
		SnapshotsTableName:     SnapshotColumns,
	} {
		require.NoError(t, ValidateColumns(cols), "table %s", name)
	}
}
