package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tk, err := GenerateJWT("buyer-1", string(RoleMember), "chat_service")
	require.NoError(t, err)

	claims, err := ParseJWT(tk)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", claims.MemberID)
	assert.Equal(t, string(RoleMember), claims.Role)
	assert.Equal(t, "chat_service", claims.Issuer)
}

func TestParseJWTRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := ParseJWT("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tk := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{MemberID: "u"})
		s, err := tk.SignedString([]byte("other"))
		require.NoError(t, err)

		_, err = ParseJWT(s)
		assert.Error(t, err)
	})

	t.Run("empty member id", func(t *testing.T) {
		tk, err := GenerateJWT("", string(RoleMember), "chat_service")
		require.NoError(t, err)

		_, err = ParseJWT(tk)
		assert.Error(t, err)
	})
}
