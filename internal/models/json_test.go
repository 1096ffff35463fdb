package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_Int(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   int64
		wantOK bool
	}{
		{"int", 3, 3, true},
		{"int64", int64(4), 4, true},
		{"float64", float64(5), 5, true},
		{"json number", json.Number("6"), 6, true},
		{"bad json number", json.Number("x"), 0, false},
		{"string", "7", 0, false},
		{"missing", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := JSON{}
			if tt.value != nil {
				j[MetaStreakCount] = tt.value
			}
			got, ok := j.Int(MetaStreakCount)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSON_IntAfterScan(t *testing.T) {
	raw, err := JSON{MetaStreakCount: 3}.Value()
	require.NoError(t, err)

	var scanned JSON
	require.NoError(t, scanned.Scan(raw))

	n, ok := scanned.Int(MetaStreakCount)
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}
