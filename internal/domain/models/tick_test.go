package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTick(t *testing.T) {
	tick, err := DecodeTick([]byte(`{"price": 51234.5, "symbol": "BTC-CAD", "t": 1700000000}`))
	require.NoError(t, err)
	require.NotNil(t, tick.Price)
	assert.Equal(t, 51234.5, *tick.Price)
	assert.Equal(t, "BTC-CAD", tick.Symbol)

	tick, err = DecodeTick([]byte(`{"price": 0}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, *tick.Price)
}

func TestDecodeTick_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"missing price": `{"symbol": "BTC-CAD"}`,
		"null price":    `{"price": null}`,
		"string price":  `{"price": "51234.5"}`,
		"not json":      `price=1`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTick([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedTick)
		})
	}
}

func TestExampleClone(t *testing.T) {
	ex := Example{Features: []float64{1, 2}, Labels: []float64{3}}
	c := ex.Clone()
	c.Features[0] = 9
	assert.Equal(t, 1.0, ex.Features[0])
}
