package config

import (
    "testing"
)

func validConfig() *Config {
    return &Config{
        Database: DatabaseConfig{
            Host:     "localhost",
            Port:     3306,
            Username: "fuse",
            Database: "fuse_pairing",
        },
        Redis: RedisConfig{
            Host: "localhost",
            Port: 6379,
        },
        Pairing: PairingConfig{
            HostAlias:          "fuse-host",
            MaxKobayashiResets: 5,
            DirectoryWorkers:   10,
            DateLayout:         "2006-01-02",
        },
        Monitoring: MonitoringConfig{
            Metrics: MetricsConfig{Enabled: true, Port: 9090},
            Health:  HealthConfig{Enabled: true, Port: 8080},
        },
    }
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
    if err := validConfig().Validate(); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
}

func TestValidateRejectsMissingDatabaseHost(t *testing.T) {
    cfg := validConfig()
    cfg.Database.Host = ""
    if err := cfg.Validate(); err == nil {
        t.Fatalf("expected error for missing database host")
    }
}

func TestValidateRejectsBadPort(t *testing.T) {
    cfg := validConfig()
    cfg.Database.Port = 70000
    if err := cfg.Validate(); err == nil {
        t.Fatalf("expected error for out-of-range database port")
    }
}

func TestValidateRejectsNonPositiveKobayashiResets(t *testing.T) {
    cfg := validConfig()
    cfg.Pairing.MaxKobayashiResets = 0
    if err := cfg.Validate(); err == nil {
        t.Fatalf("expected error for non-positive max kobayashi resets")
    }
}

func TestGetDSNIncludesCharsetAndLoc(t *testing.T) {
    db := DatabaseConfig{
        Username: "fuse",
        Password: "secret",
        Host:     "db.internal",
        Port:     3306,
        Database: "fuse_pairing",
    }
    dsn := db.GetDSN()
    want := "fuse:secret@tcp(db.internal:3306)/fuse_pairing?charset=utf8mb4&parseTime=true&loc=UTC"
    if dsn != want {
        t.Fatalf("unexpected DSN: got %s, want %s", dsn, want)
    }
}

func TestIsProductionCaseInsensitive(t *testing.T) {
    app := AppConfig{Environment: "PRODUCTION"}
    if !app.IsProduction() {
        t.Fatalf("expected PRODUCTION to be treated as production")
    }
}
