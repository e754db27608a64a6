package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalhaus/pedalhaus/store"
)

func validProfile() *Profile {
	return &Profile{
		Driver:     "memory",
		Port:       8000,
		SessionTTL: 30 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validProfile().Validate())
}

func TestValidateUnknownDriver(t *testing.T) {
	p := validProfile()
	p.Driver = "cassandra"
	err := p.Validate()
	assert.ErrorIs(t, err, store.ErrInvalidDriver)
}

func TestValidateRedisNeedsAddr(t *testing.T) {
	p := validProfile()
	p.Driver = "redis"
	assert.Error(t, p.Validate())

	p.RedisAddr = "localhost:6379"
	assert.NoError(t, p.Validate())
}

func TestValidatePort(t *testing.T) {
	p := validProfile()
	p.Port = 0
	assert.Error(t, p.Validate())
	p.Port = 70000
	assert.Error(t, p.Validate())
}

func TestValidateTTL(t *testing.T) {
	p := validProfile()
	p.SessionTTL = 0
	assert.Error(t, p.Validate())
}

func TestListenAddr(t *testing.T) {
	p := validProfile()
	assert.Equal(t, ":8000", p.ListenAddr())
	p.Addr = "127.0.0.1"
	assert.Equal(t, "127.0.0.1:8000", p.ListenAddr())
}
