package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckMeterReading(t *testing.T) {
	tests := []struct {
		name    string
		open    float64
		close   float64
		wantErr bool
	}{
		{"forward", 100, 150, false},
		{"unchanged", 100, 100, false},
		{"backwards", 150, 100, true},
		{"meter reset", 150, 0, false},
		{"both zero", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMeterReading(tt.open, tt.close)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMeterReading)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaleEntryPrepare(t *testing.T) {
	s := &SaleEntry{OpeningReading: 1000, ClosingReading: 1012.5, PricePerUnit: 100.5}
	s.Prepare()
	assert.Equal(t, 12.5, s.Quantity)
	assert.Equal(t, 1256.25, s.NetSaleAmount)

	reset := &SaleEntry{OpeningReading: 99990, ClosingReading: 0, PricePerUnit: 100, Quantity: 7}
	reset.Prepare()
	assert.Equal(t, float64(7), reset.Quantity)
	assert.Equal(t, float64(700), reset.NetSaleAmount)
}

func TestTankCheck(t *testing.T) {
	assert.NoError(t, (&Tank{Capacity: 10, CurrentStock: 10}).Check())
	assert.Error(t, (&Tank{Capacity: 10, CurrentStock: 11}).Check())
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-05"}`), &payload))
	assert.Equal(t, "2024-03-05", payload.D.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-03-05"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-03-05T23:10:00Z"}`), &payload))
	assert.Equal(t, "2024-03-05", payload.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &payload))
	assert.True(t, payload.D.IsZero())
	out, err = json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"05/03/2024"}`), &payload))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)))
	assert.Equal(t, "2024-01-02", d.String())

	require.NoError(t, d.Scan([]byte("2024-02-03")))
	assert.Equal(t, "2024-02-03", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, d.Scan(42))
}

func TestBaseReset(t *testing.T) {
	fp := FuelProduct{Base: Base{ID: "x", CreatedAt: time.Now()}}
	var e Entity = &fp
	e.Reset()
	assert.Empty(t, fp.ID)
	assert.True(t, fp.CreatedAt.IsZero())

	require.NoError(t, fp.BeforeCreate(nil))
	assert.Len(t, fp.ID, 36)
}
