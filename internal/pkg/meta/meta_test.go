package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionDoc = `{
	"stripe_session": {
		"id": "cs_test_1",
		"customer": {"id": "cus_1", "name": "Ada", "email": "ada@example.com"},
		"currency": "eur",
		"line_items": {"data": [
			{"description": "Scale It", "quantity": 2, "amount_total": 340900,
			 "price": {"nickname": null, "recurring": {"interval": "month"}, "product": {"id": "prod_A", "name": "Scale It Up"}}}
		]},
		"shipping": {"name": "Ada L.", "address": {"city": "Berlin", "line1": "Main St 1"}}
	},
	"product_ids": [12, 14],
	"paid": true
}`

func TestResolve(t *testing.T) {
	root := MustParse(sessionDoc)

	tests := []struct {
		name string
		path []string
		want string
	}{
		{"scalar string", []string{"stripe_session", "id"}, "cs_test_1"},
		{"nested object", []string{"stripe_session", "customer", "email"}, "ada@example.com"},
		{"array index", []string{"stripe_session", "line_items", "data", "0", "quantity"}, "2"},
		{"composite as json", []string{"stripe_session", "shipping", "address"}, `{"city":"Berlin","line1":"Main St 1"}`},
		{"list as json", []string{"product_ids"}, "[12,14]"},
		{"bool", []string{"paid"}, "true"},
		{"null leaf", []string{"stripe_session", "line_items", "data", "0", "price", "nickname"}, ""},
		{"missing root key", []string{"nope"}, ""},
		{"missing nested key", []string{"stripe_session", "customer", "phone"}, ""},
		{"index out of range", []string{"stripe_session", "line_items", "data", "3"}, ""},
		{"non numeric index", []string{"product_ids", "first"}, ""},
		{"walk through scalar", []string{"stripe_session", "id", "x"}, ""},
		{"empty path", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(root, tt.path...))
		})
	}
}

func TestParseKeepsKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"b":1,"a":{"z":true,"y":null},"c":[1,"x"]}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a", "c"}, v.Keys())
	raw, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"z":true,"y":null},"c":[1,"x"]}`, string(raw))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`{"a":`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{} {}`))
	assert.Error(t, err)

	v, err := Parse(nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestCoercions(t *testing.T) {
	assert.Equal(t, int64(340900), Int(340900).Int())
	assert.Equal(t, int64(12), Str(" 12 ").Int())
	assert.Equal(t, int64(3), Float(3.9).Int())
	assert.Equal(t, int64(0), Str("abc").Int())

	assert.True(t, Str("1700000000").IsNumeric())
	assert.False(t, Str("soon").IsNumeric())
	assert.False(t, Bool(true).IsNumeric())

	assert.True(t, MapOf(Field{Key: "interval", Value: Str("month")}).Truthy())
	assert.False(t, MapOf().Truthy())
	assert.False(t, Str("0").Truthy())
	assert.False(t, Null().Truthy())
	assert.True(t, Int(1).Truthy())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []string{"12", "14"}, Strings(MustParse(`[12, 14]`)))
	assert.Equal(t, []string{"7"}, Strings(Int(7)))
	assert.Nil(t, Strings(Null()))
}

func TestMapOfRepeatedKey(t *testing.T) {
	v := MapOf(Field{Key: "a", Value: Int(1)}, Field{Key: "b", Value: Int(2)}, Field{Key: "a", Value: Int(3)})
	assert.Equal(t, []string{"a", "b"}, v.Keys())
	assert.Equal(t, "3", Resolve(v, "a"))
}
