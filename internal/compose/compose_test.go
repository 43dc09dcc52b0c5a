package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackup-cli/stackup/internal/config"
)

// recorder captures every docker invocation instead of running it.
type recorder struct {
	calls [][]string
	dirs  []string
	err   error
}

func (r *recorder) run(_ context.Context, dir string, args ...string) error {
	r.calls = append(r.calls, args)
	r.dirs = append(r.dirs, dir)
	return r.err
}

func newTestClient(cfg config.ComposeConfig, dir string, rec *recorder) *Client {
	c := NewClient(cfg, dir)
	c.run = rec.run
	return c
}

func TestUp(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := newTestClient(config.ComposeConfig{File: "docker-compose.yml"}, "/srv/app", rec)

	require.NoError(t, c.Up(context.Background(), "app", "redis"))

	require.Len(t, rec.calls, 1)
	assert.Equal(t,
		[]string{"compose", "-f", "docker-compose.yml", "up", "-d", "app", "redis"},
		rec.calls[0])
	assert.Equal(t, "/srv/app", rec.dirs[0])
}

func TestUp_WithProjectName(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := newTestClient(config.ComposeConfig{File: "compose.yml", Project: "demo"}, "/srv/app", rec)

	require.NoError(t, c.Up(context.Background(), "app"))

	require.Len(t, rec.calls, 1)
	assert.Equal(t,
		[]string{"compose", "-f", "compose.yml", "-p", "demo", "up", "-d", "app"},
		rec.calls[0])
}

func TestUp_Error(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("exit status 1")}
	c := newTestClient(config.ComposeConfig{}, "/srv/app", rec)

	err := c.Up(context.Background(), "app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compose up app")
}

func TestExec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		user     string
		command  []string
		wantArgs []string
	}{
		{
			name:    "with user",
			user:    "www-data",
			command: []string{"php", "artisan", "migrate", "--force"},
			wantArgs: []string{
				"compose", "-f", "docker-compose.yml", "exec", "-T",
				"-u", "www-data", "app", "php", "artisan", "migrate", "--force",
			},
		},
		{
			name:    "without user",
			user:    "",
			command: []string{"composer", "install"},
			wantArgs: []string{
				"compose", "-f", "docker-compose.yml", "exec", "-T",
				"app", "composer", "install",
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			c := newTestClient(config.ComposeConfig{File: "docker-compose.yml"}, "/srv/app", rec)

			require.NoError(t, c.Exec(context.Background(), "app", tc.user, tc.command...))

			require.Len(t, rec.calls, 1)
			assert.Equal(t, tc.wantArgs, rec.calls[0])
		})
	}
}

func TestExec_ErrorCarriesCommand(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("exit status 2")}
	c := newTestClient(config.ComposeConfig{}, "/srv/app", rec)

	err := c.Exec(context.Background(), "app", "www-data", "php", "artisan", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compose exec app")
	assert.True(t, strings.Contains(err.Error(), "php artisan migrate"))
}
