package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptPasswordService(t *testing.T) {
	service := NewBcryptPasswordService(4) // minimum cost keeps the test fast

	t.Run("HashAndCompare", func(t *testing.T) {
		hashed, err := service.HashPassword("swordfish1")
		require.NoError(t, err)
		assert.NotEqual(t, "swordfish1", hashed)

		assert.NoError(t, service.ComparePassword(hashed, "swordfish1"))
	})

	t.Run("CompareWrongPassword", func(t *testing.T) {
		hashed, err := service.HashPassword("swordfish1")
		require.NoError(t, err)

		assert.Error(t, service.ComparePassword(hashed, "swordfish2"))
	})

	t.Run("HashesAreSalted", func(t *testing.T) {
		first, err := service.HashPassword("swordfish1")
		require.NoError(t, err)
		second, err := service.HashPassword("swordfish1")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}
