package database

import (
	"testing"

	"github.com/synaptica-ai/cardiorisk/pkg/common/config"
)

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{
		PostgresHost:     "db",
		PostgresPort:     "5433",
		PostgresUser:     "svc",
		PostgresPassword: "secret",
		PostgresDB:       "risk",
		PostgresSSLMode:  "require",
	}
	want := "host=db user=svc password=secret dbname=risk port=5433 sslmode=require"
	if got := PostgresDSN(cfg); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
