package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		LoginRateLimit     float64 // requests per second, per client IP
		LoginRateBurst     int
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		Name          string
		DisableTLS    bool
	}

	// SeedConfig holds the administrator account ensured at startup.
	SeedConfig struct {
		AdminEmail     string
		AdminPassword  string
		AdminFirstName string
		AdminLastName  string
	}

	Config struct {
		Debug          bool
		TestMode       bool
		Env            string
		Build          string
		AppName        string
		SecretKey      string
		RollbarToken   string
		SendgridApiKey string
		FromEmail      string

		Server   ServerConfig
		Database DatabaseConfig
		Seed     SeedConfig
	}
)

const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
)

func (c *Config) DefaultFromEmail() mail.Address {
	if addr, err := mail.ParseAddress(c.FromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.FromEmail}
}

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "ProjectPlatec")
	v.SetDefault("secretKey", "s3_qv!w9ld-7x#h0oc$2pt)k&u4b+z=8yr(em^ja6nfig")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "ProjectPlatec <noreply@localhost>")

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("server.loginRateLimit", 0.5)
	v.SetDefault("server.loginRateBurst", 5)

	v.SetDefault("database.engine", EnginePostgres)
	v.SetDefault("database.user", "platec")
	v.SetDefault("database.password", "platec")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "platec")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("seed.adminEmail", "admin@example.com")
	v.SetDefault("seed.adminPassword", "Admin123!")
	v.SetDefault("seed.adminFirstName", "Admin")
	v.SetDefault("seed.adminLastName", "User")
}

// NewConfig reads the configuration from defaults, `config/.env.<env>` and the environment.
// Environment variables are prefixed with the environment name, e.g. `PROD_DATABASE_HOST`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if root, err := ProjectRoot(); err == nil {
		dotEnvPath := filepath.Join(root, "config", ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	v.AutomaticEnv()

	return &Config{
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		Env:            env,
		Build:          v.GetString("build"),
		AppName:        v.GetString("appName"),
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		FromEmail:      v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			LoginRateLimit:     v.GetFloat64("server.loginRateLimit"),
			LoginRateBurst:     v.GetInt("server.loginRateBurst"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Seed: SeedConfig{
			AdminEmail:     v.GetString("seed.adminEmail"),
			AdminPassword:  v.GetString("seed.adminPassword"),
			AdminFirstName: v.GetString("seed.adminFirstName"),
			AdminLastName:  v.GetString("seed.adminLastName"),
		},
	}
}
