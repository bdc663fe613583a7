package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJWKSEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected map[string]string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: map[string]string{},
		},
		{
			name:  "single pair",
			input: "https://issuer.example.com=https://issuer.example.com/jwks.json",
			expected: map[string]string{
				"https://issuer.example.com": "https://issuer.example.com/jwks.json",
			},
		},
		{
			name:  "multiple pairs with whitespace",
			input: "a=https://a/jwks , b=https://b/jwks",
			expected: map[string]string{
				"a": "https://a/jwks",
				"b": "https://b/jwks",
			},
		},
		{
			name:     "malformed pair dropped",
			input:    "no-equals-sign",
			expected: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseJWKSEndpoints(tt.input))
		})
	}
}

func TestParseRecipients(t *testing.T) {
	assert.Nil(t, parseRecipients(""))
	assert.Equal(t, []string{"a@example.com"}, parseRecipients("a@example.com"))
	assert.Equal(t,
		[]string{"a@example.com", "b@example.com"},
		parseRecipients(" a@example.com , b@example.com ,"))
}

func TestParseComplexFields_Validation(t *testing.T) {
	t.Run("verification requires endpoints", func(t *testing.T) {
		cfg := &Config{}
		cfg.Auth.EnableVerification = true

		err := cfg.parseComplexFields()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWKS endpoints")
	})

	t.Run("verification disabled needs no endpoints", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, cfg.parseComplexFields())
	})

	t.Run("email enabled requires recipients", func(t *testing.T) {
		cfg := &Config{}
		cfg.Notifications.EmailEnabled = true

		err := cfg.parseComplexFields()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "recipients")
	})

	t.Run("email enabled with recipients", func(t *testing.T) {
		cfg := &Config{}
		cfg.Notifications.EmailEnabled = true
		cfg.Notifications.EmailRecipientsStr = "security@example.com"
		require.NoError(t, cfg.parseComplexFields())
	})
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "gatehouse",
		Password: "secret",
		Database: "gatehouse_engine",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=gatehouse password=secret dbname=gatehouse_engine sslmode=require",
		cfg.ConnectionString())
}
