package redis

import (
	"testing"
	"time"

	"github.com/Alijeyrad/physio_backend/config"
)

func TestFromCentralConfig(t *testing.T) {
	got := FromCentralConfig(config.RedisConfig{Addr: "cache:6379", PoolSize: 50})
	def := DefaultConfig()

	if got.Addr != "cache:6379" {
		t.Errorf("Addr = %q", got.Addr)
	}
	if got.PoolSize != 50 {
		t.Errorf("PoolSize = %d, want 50", got.PoolSize)
	}
	if got.MinIdleConns != def.MinIdleConns {
		t.Errorf("MinIdleConns = %d, want default %d", got.MinIdleConns, def.MinIdleConns)
	}
	if got.DialTimeout() != 5*time.Second {
		t.Errorf("DialTimeout = %v", got.DialTimeout())
	}
}

func TestTimeoutFallbacks(t *testing.T) {
	var c Config
	if c.ReadTimeout() != 3*time.Second || c.WriteTimeout() != 3*time.Second {
		t.Errorf("zero config timeouts = %v/%v", c.ReadTimeout(), c.WriteTimeout())
	}
}
