package config

// EmbeddedTVDBKey is injected at build time and used when no key is configured.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/marquee/marquee/internal/config.EmbeddedTVDBKey=xxx'"
var EmbeddedTVDBKey string
