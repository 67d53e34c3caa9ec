package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldList_JSONShape(t *testing.T) {
	fields := FieldList{{Name: "pos", Type: "BlockPos"}, {Name: "amount", Type: "int"}}

	data, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"pos":"BlockPos"},{"amount":"int"}]`, string(data))

	empty, err := json.Marshal(FieldList(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestFieldList_UnmarshalKeepsOrder(t *testing.T) {
	var fields FieldList
	require.NoError(t, json.Unmarshal([]byte(`[{"z":"int"},{"a":"String"}]`), &fields))
	assert.Equal(t, FieldList{{Name: "z", Type: "int"}, {Name: "a", Type: "String"}}, fields)

	assert.Error(t, json.Unmarshal([]byte(`[{"a":"int","b":"int"}]`), &fields))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"int"}`), &fields))
}

func TestFieldList_Scan(t *testing.T) {
	var fields FieldList
	require.NoError(t, fields.Scan(`[{"pos":"BlockPos"}]`))
	assert.Equal(t, FieldList{{Name: "pos", Type: "BlockPos"}}, fields)

	require.NoError(t, fields.Scan([]byte(`[]`)))
	assert.Equal(t, FieldList{}, fields)

	require.NoError(t, fields.Scan(nil))
	assert.Equal(t, FieldList{}, fields)

	require.NoError(t, fields.Scan(""))
	assert.Equal(t, FieldList{}, fields)

	assert.Error(t, fields.Scan(42))
}

func TestSide(t *testing.T) {
	assert.Equal(t, "CLIENT", SideClient.String())
	assert.Equal(t, "COMMON", SideCommon.String())
	assert.Equal(t, "Side(7)", Side(7).String())

	data, err := json.Marshal(SideClient)
	require.NoError(t, err)
	assert.Equal(t, `"CLIENT"`, string(data))

	var s Side
	require.NoError(t, json.Unmarshal([]byte(`"COMMON"`), &s))
	assert.Equal(t, SideCommon, s)
	require.NoError(t, json.Unmarshal([]byte(`1`), &s))
	assert.Equal(t, SideClient, s)
	assert.Error(t, json.Unmarshal([]byte(`"SERVER"`), &s))

	_, err = ParseSide("both")
	assert.Error(t, err)
}

func TestResultFlags(t *testing.T) {
	assert.False(t, ResultFlags(0).HasResult())
	assert.True(t, FlagHasResult.HasResult())
	assert.False(t, FlagHasResult.Cancelable())
	assert.True(t, (FlagHasResult | FlagCancelable).Cancelable())
	assert.Equal(t, ResultFlags(3), FlagHasResult|FlagCancelable)
}

func TestView_String(t *testing.T) {
	assert.Equal(t, "staging", Staging.String())
	assert.Equal(t, "production", Production.String())
}
