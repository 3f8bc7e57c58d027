package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name string
		in   any
		out  string
	}{
		{"float", 12.5, "12.5"},
		{"int", 7, "7"},
		{"json number", json.Number("3.25"), "3.25"},
		{"dot string", "10.40", "10.4"},
		{"comma string", "10,40", "10.4"},
		{"padded string", "  2 ", "2"},
		{"garbage string", "abc", "0"},
		{"exponent string", "1e2000000", "0"},
		{"exponent number", json.Number("1e2000000"), "0"},
		{"empty string", "", "0"},
		{"nil", nil, "0"},
		{"bool", true, "0"},
		{"object", map[string]any{"x": 1}, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.out, ParseAmount(tc.in).String())
		})
	}
}

func TestParsePositiveAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"0.01", "0.01", true},
		{"1,23", "1.23", true},
		{"0", "", false},
		{"-5", "", false},
		{"abc", "", false},
		{"", "", false},
		{"999999999999999.99", "999999999999999.99", true},
		{"1000000000000000", "", false},
		{"0.001", "", false},
		{"1.500", "1.5", true},
		{"1e2000000", "", false},
		{"1E3", "", false},
		{"0." + strings.Repeat("0", 40) + "1", "", false},
	}
	for _, tc := range cases {
		got, err := ParsePositiveAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.out, got.String())
	}
}

func TestParseNonNegativeAmount(t *testing.T) {
	got, err := ParseNonNegativeAmount("0")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseNonNegativeAmount("-0.5")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseNonNegativeAmount("1e2000000")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MustMoney("12.50")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":12.5}`, string(b))

	var decoded struct {
		A Money `json:"a"`
		B Money `json:"b"`
		C Money `json:"c"`
		D Money `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"4,5","b":"n/a","c":null,"d":{"x":1}}`), &decoded))
	assert.Equal(t, "4.5", decoded.A.String())
	assert.True(t, decoded.B.IsZero())
	assert.True(t, decoded.C.IsZero())
	assert.True(t, decoded.D.IsZero())
}
