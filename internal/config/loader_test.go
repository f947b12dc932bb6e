package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortuna/frisbee/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	config.DotenvFiles = nil

	Convey("Given a config loader", t, func() {
		ctx := context.Background()

		Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			Convey("Then the defaults are returned", func() {
				So(err, ShouldBeNil)
				So(cfg.HTTP.Port, ShouldEqual, "8080")
				So(cfg.Database.MaxOpenConns, ShouldEqual, 20)
				So(cfg.Redis.Stream, ShouldEqual, "player_stats.imported")
				So(cfg.Pool.CacheTTL, ShouldEqual, 10*time.Minute)
				So(cfg.Import.Format, ShouldEqual, "csv")
				So(cfg.IsDevelopment(), ShouldBeTrue)
			})
		})

		Convey("When a YAML file is named", func() {
			path := writeFile(t, "frisbee.yaml", `
environment: production
http:
  port: "9090"
pool:
  cache_ttl: 2m
import:
  format: html
  default_team: Flyers
`)
			setenv("FRISBEE_CONFIG", path)

			cfg, err := config.Load(ctx)

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.HTTP.Port, ShouldEqual, "9090")
				So(cfg.Pool.CacheTTL, ShouldEqual, 2*time.Minute)
				So(cfg.Import.Format, ShouldEqual, "html")
				So(cfg.Import.DefaultTeam, ShouldEqual, "Flyers")
				So(cfg.IsDevelopment(), ShouldBeFalse)
				So(cfg.Database.MaxIdleConns, ShouldEqual, 5)
			})

			Convey("And env vars override the file", func() {
				setenv("FRISBEE_HTTP__PORT", "7070")
				setenv("FRISBEE_DATABASE__DSN", "postgres://other/db")

				cfg, err := config.Load(ctx)
				So(err, ShouldBeNil)
				So(cfg.HTTP.Port, ShouldEqual, "7070")
				So(cfg.Database.DSN, ShouldEqual, "postgres://other/db")
				So(cfg.Import.Format, ShouldEqual, "html")
			})
		})

		Convey("When only the provider secret is set", func() {
			setenv("SUPABASE_JWT_SECRET", "provider-secret")

			cfg, err := config.Load(ctx)

			Convey("Then it is used for token verification", func() {
				So(err, ShouldBeNil)
				So(cfg.Auth.JWTSecret, ShouldEqual, "provider-secret")
			})
		})

		Convey("When the import format is unknown", func() {
			setenv("FRISBEE_IMPORT__FORMAT", "xlsx")

			_, err := config.Load(ctx)

			Convey("Then loading fails validation", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When a cron is set without a source", func() {
			setenv("FRISBEE_IMPORT__CRON", "0 3 * * *")

			_, err := config.Load(ctx)

			Convey("Then loading fails validation", func() {
				So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})
	})
}

func TestDotenv(t *testing.T) {
	Convey("Given a dotenv file", t, func() {
		path := writeFile(t, ".env.backend", "FRISBEE_HTTP__PORT=6060\n")
		config.DotenvFiles = []string{path, filepath.Join(t.TempDir(), "missing.env")}
		defer func() { config.DotenvFiles = nil }()
		defer os.Unsetenv("FRISBEE_HTTP__PORT")

		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then its values reach the config and missing files are skipped", func() {
				So(err, ShouldBeNil)
				So(cfg.HTTP.Port, ShouldEqual, "6060")
			})
		})
	})
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func setenv(key, value string) {
	_ = os.Setenv(key, value)
	Reset(func() { _ = os.Unsetenv(key) })
}
