package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/token"
)

func issueToken(t *testing.T, ttl time.Duration) string {
	t.Helper()

	signed, err := token.NewManager("test-secret", ttl).Issue(42, "Alice", "alice@example.com")
	require.NoError(t, err)
	return signed
}

func TestOpen_FreshStore(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer m.Close()

	assert.False(t, m.Authenticated())
	assert.Empty(t, m.Token())
	assert.Nil(t, m.User())
}

func TestSetToken_PopulatesUserFromClaims(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer m.Close()

	signed := issueToken(t, time.Hour)
	require.NoError(t, m.SetToken(signed))

	assert.True(t, m.Authenticated())
	assert.Equal(t, signed, m.Token())

	user := m.User()
	require.NotNil(t, user)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestSetToken_RejectsExpired(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	defer m.Close()

	err = m.SetToken(issueToken(t, -time.Hour))
	assert.Error(t, err)
	assert.False(t, m.Authenticated())
}

func TestToken_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	signed := issueToken(t, time.Hour)

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.SetToken(signed))
	require.NoError(t, m.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Authenticated())
	assert.Equal(t, signed, reopened.Token())
	require.NotNil(t, reopened.User())
	assert.Equal(t, int64(42), reopened.User().ID)
}

func TestOpen_DiscardsExpiredStoredToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	// token that expires almost immediately
	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.SetToken(issueToken(t, 50*time.Millisecond)))
	require.NoError(t, m.Close())

	time.Sleep(100 * time.Millisecond)

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.False(t, reopened.Authenticated())
	assert.Nil(t, reopened.User())
}

func TestLogout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.SetToken(issueToken(t, time.Hour)))

	require.NoError(t, m.Logout())
	assert.False(t, m.Authenticated())
	assert.Nil(t, m.User())
	require.NoError(t, m.Close())

	// logout is durable
	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.False(t, reopened.Authenticated())
}
