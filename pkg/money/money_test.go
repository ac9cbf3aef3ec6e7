package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "50.00", want: "50.00"},
		{name: "rounds up", input: "1.005", want: "1.01"},
		{name: "negative", input: "-3.5", want: "-3.50"},
		{name: "integer", input: "7", want: "7.00"},
		{name: "whitespace", input: " 12.30 ", want: "12.30"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "12,30", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			amount, err := FromString(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, amount.String())
		})
	}
}

func TestArithmeticRoundsEveryStep(t *testing.T) {
	a := MustFromString("0.105")
	// parse already rounded to 0.11
	assert.Equal(t, "0.11", a.String())

	unit := MustFromString("33.335")
	line := unit.MulInt(3)
	assert.Equal(t, "100.02", line.String())

	total := MustFromString("0.01").Add(MustFromString("0.014"))
	assert.Equal(t, "0.02", total.String())
}

func TestMulQuantity(t *testing.T) {
	unit := MustFromString("50.00")
	assert.Equal(t, "100.00", unit.MulInt(2).String())
	assert.Equal(t, "0.00", unit.MulInt(0).String())
}

func TestZeroAndSigns(t *testing.T) {
	assert.Equal(t, "0.00", Zero().String())
	assert.True(t, Zero().IsZero())
	assert.True(t, MustFromString("-1.00").IsNegative())
	assert.True(t, MustFromString("1.00").IsPositive())
	assert.Equal(t, -1, MustFromString("1.00").Cmp(MustFromString("2.00")))
}

func TestCents(t *testing.T) {
	assert.Equal(t, int64(12345), MustFromString("123.45").Cents())
	assert.Equal(t, "123.45", FromCents(12345).String())
}

func TestJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(MustFromString("30.00"))
	require.NoError(t, err)
	assert.Equal(t, `"30.00"`, string(raw))

	var amount Amount
	require.NoError(t, json.Unmarshal([]byte(`"12.3"`), &amount))
	assert.Equal(t, "12.30", amount.String())
}

func TestSum(t *testing.T) {
	total := Sum(MustFromString("1.11"), MustFromString("2.22"), MustFromString("-0.33"))
	assert.Equal(t, "3.00", total.String())
	assert.Equal(t, "0.00", Sum().String())
}
