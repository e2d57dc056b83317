package utils

import (
	"database/sql"
	"testing"
	"time"
)

var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

func TestPostgresPoolDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 20 || c.MaxIdleConns != 10 {
		t.Fatalf("unexpected pool sizes %+v", c)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected ping timeout %v", c.PingTimeout)
	}

	c = PostgresPoolConfig{MaxOpenConns: 3, ConnMaxLifetime: time.Minute}.withDefaults()
	if c.MaxOpenConns != 3 || c.ConnMaxLifetime != time.Minute {
		t.Fatalf("explicit values should be kept, got %+v", c)
	}
}
