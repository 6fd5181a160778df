package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parkgate/internal/shared/config"
)

func TestNewRouterUsesInjectedConfig(t *testing.T) {
	cfg := &config.Config{}
	router := NewRouter(nil, cfg)

	// The router must hold the caller's config rather than re-reading the
	// environment, so JWT middleware sees the same settings as the rest of
	// the process.
	assert.Same(t, cfg, router.config)
}
