package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Bool(true)
	var _ Value = List{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys_UTF16Order(t *testing.T) {
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestObjectClone_Independent(t *testing.T) {
	orig := Object{
		"tags":  List{String("work")},
		"inner": Object{"n": Int(1)},
	}

	clone := orig.Clone()
	clone["tags"] = append(clone["tags"].(List), String("home"))
	clone["inner"].(Object)["n"] = Int(2)

	assert.Equal(t, List{String("work")}, orig["tags"])
	assert.Equal(t, Int(1), orig["inner"].(Object)["n"])
	assert.Nil(t, Object(nil).Clone())
}

func TestEqual(t *testing.T) {
	a := Object{"x": List{Int(1), Bool(true)}, "y": Null{}}
	b := Object{"y": Null{}, "x": List{Int(1), Bool(true)}}
	c := Object{"x": List{Int(1), Bool(false)}, "y": Null{}}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.True(t, Equal(nil, nil))
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"room":     "B12",
		"capacity": 8,
		"rounded":  float64(3),
		"flags":    []any{true, nil},
	})
	require.NoError(t, err)

	assert.Equal(t, Object{
		"room":     String("B12"),
		"capacity": Int(8),
		"rounded":  Int(3),
		"flags":    List{Bool(true), Null{}},
	}, v)

	_, err = FromAny(1.5)
	assert.Error(t, err)

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestObjectJSONRoundTrip_LargeInt(t *testing.T) {
	orig := Object{"big": Int(9007199254740993), "s": String("<tag>")}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var got Object
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, orig, got)
}

func TestObjectUnmarshal_RejectsFloat(t *testing.T) {
	var got Object
	err := json.Unmarshal([]byte(`{"x": 1.25}`), &got)
	assert.Error(t, err)
}

func TestToAny(t *testing.T) {
	v := Object{"n": Int(2), "l": List{String("a")}}
	assert.Equal(t, map[string]any{"n": int64(2), "l": []any{"a"}}, ToAny(v))
}
