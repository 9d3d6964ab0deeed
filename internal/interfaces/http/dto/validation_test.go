package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayValidation(t *testing.T) {
	require.NoError(t, RegisterValidations())

	type payload struct {
		Day string `json:"day" binding:"required,day"`
	}

	t.Run("accepts a calendar day", func(t *testing.T) {
		var p payload
		err := binding.JSON.BindBody([]byte(`{"day":"2026-01-15"}`), &p)
		assert.NoError(t, err)
	})

	t.Run("rejects an impossible date", func(t *testing.T) {
		var p payload
		err := binding.JSON.BindBody([]byte(`{"day":"2026-02-30"}`), &p)
		assert.Error(t, err)
	})

	t.Run("rejects a timestamp", func(t *testing.T) {
		var p payload
		err := binding.JSON.BindBody([]byte(`{"day":"2026-01-15T10:00:00Z"}`), &p)
		assert.Error(t, err)
	})
}
