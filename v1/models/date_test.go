package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Canonical", input: `"2026-03-01"`, want: "2026-03-01"},
		{name: "Padded", input: `" 2026-03-01 "`, want: "2026-03-01"},
		{name: "Timestamp rejected", input: `"2026-03-01T10:00:00Z"`, wantErr: true},
		{name: "Slashes rejected", input: `"2026/03/01"`, wantErr: true},
		{name: "Number rejected", input: `1700000000`, wantErr: true},
		{name: "Impossible day rejected", input: `"2026-02-30"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDate_NullPointer(t *testing.T) {
	var body struct {
		PaymentDate *Date `json:"paymentDate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"paymentDate":null}`), &body))
	assert.Nil(t, body.PaymentDate)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"paymentDate":null}`, string(out))
}

func TestDate_MarshalJSON(t *testing.T) {
	d := NewDate(time.Date(2026, 10, 14, 23, 59, 0, 0, time.UTC))
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-14"`, string(out))
}

func TestDate_Scan(t *testing.T) {
	t.Run("FromTime", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan(time.Date(2026, 1, 31, 15, 0, 0, 0, time.UTC)))
		assert.Equal(t, "2026-01-31", d.String())
	})

	t.Run("FromString", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan("2026-01-31"))
		assert.Equal(t, "2026-01-31", d.String())
	})

	t.Run("FromTimestampBytes", func(t *testing.T) {
		var d Date
		require.NoError(t, d.Scan([]byte("2026-01-31 00:00:00+00:00")))
		assert.Equal(t, "2026-01-31", d.String())
	})

	t.Run("FromUnsupported", func(t *testing.T) {
		var d Date
		assert.Error(t, d.Scan(42))
	})

	t.Run("Value", func(t *testing.T) {
		d, err := ParseDate("2026-05-09")
		require.NoError(t, err)
		v, err := d.Value()
		require.NoError(t, err)
		assert.Equal(t, "2026-05-09", v)
	})
}

func TestDate_AddMonths(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		months int
		want   string
	}{
		{name: "Mid month", start: "2026-01-15", months: 3, want: "2026-04-15"},
		{name: "Jan 31 to Feb", start: "2026-01-31", months: 1, want: "2026-02-28"},
		{name: "Jan 31 to leap Feb", start: "2028-01-31", months: 1, want: "2028-02-29"},
		{name: "Aug 31 to Sep", start: "2026-08-31", months: 1, want: "2026-09-30"},
		{name: "Month end across year", start: "2026-10-31", months: 4, want: "2027-02-28"},
		{name: "Twelve months", start: "2026-05-31", months: 12, want: "2027-05-31"},
		{name: "Zero months", start: "2026-03-31", months: 0, want: "2026-03-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.start)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.AddMonths(tt.months).String())
		})
	}

	d, err := ParseDate("2026-01-15")
	require.NoError(t, err)
	assert.True(t, d.AddMonths(1).After(d))
}
