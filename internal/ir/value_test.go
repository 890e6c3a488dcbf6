package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", Null{}, ""},
		{"nil", nil, ""},
		{"string", String("phi"), "phi"},
		{"integral number", Number(30), "30"},
		{"fraction", Number(0.25), "0.25"},
		{"negative", Number(-90), "-90"},
		{"bool", Bool(true), "true"},
		{"array", Array{Number(1), String("a")}, `[1,"a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestAsNumber(t *testing.T) {
	f, ok := AsNumber(Number(1.5))
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	f, ok = AsNumber(String(" 42 "))
	assert.True(t, ok)
	assert.Equal(t, 42.0, f)

	_, ok = AsNumber(String("NaN"))
	assert.False(t, ok, "NaN is never a usable number")

	_, ok = AsNumber(String("image.png"))
	assert.False(t, ok)

	_, ok = AsNumber(Null{})
	assert.False(t, ok)
}

func TestEqual_LooseNumericComparison(t *testing.T) {
	assert.True(t, Equal(Number(30), String("30")))
	assert.True(t, Equal(String("30.0"), Number(30)))
	assert.True(t, Equal(String("a"), String("a")))
	assert.False(t, Equal(String("a"), String("b")))
	assert.False(t, Equal(Number(1), Number(2)))
	assert.True(t, Equal(Null{}, nil))
	assert.False(t, Equal(Null{}, String("")))
}

func TestObject_GetMissingIsNull(t *testing.T) {
	obj := Object{"a": String("x")}
	assert.Equal(t, String("x"), obj.Get("a"))
	assert.Equal(t, Null{}, obj.Get("missing"))
}

func TestObject_SortedKeysUTF16Order(t *testing.T) {
	// U+FB01 sorts before U+1F600 in UTF-16 (surrogates are 0xD83D...),
	// but after it in UTF-8 byte order.
	obj := Object{"\U0001F600": Null{}, "ﬁ": Null{}, "a": Null{}}
	assert.Equal(t, []string{"a", "\U0001F600", "ﬁ"}, obj.SortedKeys())
}

func TestFromGo_RoundTrip(t *testing.T) {
	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`{"range":[0,90],"units":"deg","interpolate":false,"x":null}`), &decoded))

	v, err := FromGo(decoded)
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, Array{Number(0), Number(90)}, obj["range"])
	assert.Equal(t, String("deg"), obj["units"])
	assert.Equal(t, Bool(false), obj["interpolate"])
	assert.Equal(t, Null{}, obj["x"])

	assert.Equal(t, decoded, ToGo(v))
}

func TestFromGo_Unsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}
