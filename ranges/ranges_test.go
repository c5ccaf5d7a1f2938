package ranges

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	table := Default()
	require.NotEmpty(t, table)

	hb, ok := table["hemoglobina"]
	require.True(t, ok)
	require.NotNil(t, hb.Low)
	require.NotNil(t, hb.High)
	assert.Equal(t, 12.3, *hb.Low)
	assert.Equal(t, 15.3, *hb.High)
	assert.Equal(t, "g/dL", hb.Unit)
}

func TestClassify(t *testing.T) {
	table := Default()
	cases := []struct {
		field string
		value string
		want  Status
	}{
		{"hemoglobina", "13.5", Normal},
		{"hemoglobina", "10.1", Low},
		{"hemoglobina", "16", High},
		{"hemoglobina", "12.3", Normal},
		{"hemoglobina", "<10", Unknown},
		{"hemoglobina", "abc", Unknown},
		{"leucocitos", "8.2", Normal},
		{"leucocitos", "8200", Normal},
		{"leucocitos", "15000", High},
		{"bilirrubina_total", "1.5", High},
		{"pcr", "3", Unknown},
		{"no_such_field", "1", Unknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, table.Classify(c.field, c.value), "%s=%s", c.field, c.value)
	}
}

func TestEmphasize(t *testing.T) {
	table := Default()
	assert.Equal(t, "<b>190</b>", table.Emphasize("glucosa", "190"))
	assert.Equal(t, "95", table.Emphasize("glucosa", "95"))
	assert.Equal(t, "Negativo", table.Emphasize("nitritos", "Negativo"))
}

func TestParse(t *testing.T) {
	table, err := Parse([]byte("sodio: {unit: mEq/L, low: 135, high: 145}\n"))
	require.NoError(t, err)
	assert.Equal(t, Low, table.Classify("sodio", "130"))

	_, err = Parse([]byte("sodio: [unclosed"))
	assert.Error(t, err)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "high", High.String())
	assert.Equal(t, "unknown", Status(42).String())
}
