package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusApproved, true},
		{OrderStatusPending, OrderStatusRejected, true},
		{OrderStatusPending, OrderStatusPending, false},
		{OrderStatusApproved, OrderStatusRejected, false},
		{OrderStatusApproved, OrderStatusPending, false},
		{OrderStatusRejected, OrderStatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestOrderStatus_UnmarshalJSON(t *testing.T) {
	t.Run("accepts canonical literal", func(t *testing.T) {
		var body struct {
			Status OrderStatus `json:"status"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"status":"approved"}`), &body))
		assert.Equal(t, OrderStatusApproved, body.Status)
	})

	t.Run("rejects numeric status", func(t *testing.T) {
		var body struct {
			Status OrderStatus `json:"status"`
		}
		err := json.Unmarshal([]byte(`{"status":1}`), &body)
		assert.Error(t, err)
	})

	t.Run("rejects unknown literal", func(t *testing.T) {
		var body struct {
			Status OrderStatus `json:"status"`
		}
		err := json.Unmarshal([]byte(`{"status":"Approved"}`), &body)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
}

func TestOptional(t *testing.T) {
	type patch struct {
		Note   Optional[string] `json:"note"`
		RoomID Optional[int64]  `json:"roomId"`
	}

	t.Run("absent fields", func(t *testing.T) {
		var p patch
		require.NoError(t, json.Unmarshal([]byte(`{}`), &p))
		assert.False(t, p.Note.Set)
		assert.False(t, p.RoomID.Set)
		assert.Nil(t, p.Note.Ptr())
	})

	t.Run("explicit null", func(t *testing.T) {
		var p patch
		require.NoError(t, json.Unmarshal([]byte(`{"note":null}`), &p))
		assert.True(t, p.Note.Set)
		assert.True(t, p.Note.Null)
		assert.Nil(t, p.Note.Ptr())
	})

	t.Run("explicit empty string is a value", func(t *testing.T) {
		var p patch
		require.NoError(t, json.Unmarshal([]byte(`{"note":"","roomId":3}`), &p))
		require.NotNil(t, p.Note.Ptr())
		assert.Equal(t, "", *p.Note.Ptr())
		assert.Equal(t, int64(3), p.RoomID.Value)
	})
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
