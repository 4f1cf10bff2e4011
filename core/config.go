package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreFirebase = "firebase"
	StoreMemory   = "memory"
)

type (
	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		WorkDir      string
		RollbarToken string

		Server    ServerConfig
		Store     StoreConfig
		OneSignal OneSignalConfig
		Dispatch  DispatchConfig
		Database  DatabaseConfig
		Alerts    AlertsConfig
	}

	ServerConfig struct {
		Address            string
		DebugAddress       string
		Host               string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	StoreConfig struct {
		Engine string
		URL    string
		// ServiceAccount is the JSON credential of the Firebase service account.
		ServiceAccount string
		// Fixture is a JSON export loaded by the memory engine.
		Fixture string
	}

	OneSignalConfig struct {
		AppID    string
		APIKey   string
		Endpoint string
	}

	DispatchConfig struct {
		BodyLimit    int
		ProbeMedia   bool
		ProbeTimeout time.Duration
		Concurrency  int
	}

	// DatabaseConfig configures the delivery audit log. An empty Engine disables it.
	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	AlertsConfig struct {
		Recipients     []string
		FromEmail      string
		SendgridAPIKey string
	}
)

func (db DatabaseConfig) Address() string {
	if db.Port == "" {
		return db.Host
	}
	return db.Host + ":" + db.Port
}

func (db DatabaseConfig) Enabled() bool { return db.Engine != "" }

// NewConfig loads the configuration of the current ENV (DEV by default).
// Variables are read from `config/.env.<env>` when present, then from the environment,
// each prefixed with the env name: eg. DEV_STORE_URL.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Disiplinku")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "k1v&6h=#u0^d!rl2s@jc8q$pzx5b+9tw(oy7e)gm4fna3i")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":8001")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("store.engine", StoreFirebase)
	v.SetDefault("store.url", "https://disiplinkuapp-default-rtdb.firebaseio.com")
	v.SetDefault("store.serviceAccount", "")
	v.SetDefault("store.fixture", "")
	v.SetDefault("onesignal.appId", "")
	v.SetDefault("onesignal.apiKey", "")
	v.SetDefault("onesignal.endpoint", "https://onesignal.com/api/v1/notifications")
	v.SetDefault("dispatch.bodyLimit", 100)
	v.SetDefault("dispatch.probeMedia", true)
	v.SetDefault("dispatch.probeTimeout", 5*time.Second)
	v.SetDefault("dispatch.concurrency", 0)
	v.SetDefault("database.engine", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "disiplinku")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", false)
	v.SetDefault("alerts.recipients", []string{})
	v.SetDefault("alerts.fromEmail", "noreply@localhost")
	v.SetDefault("alerts.sendgridApiKey", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Address:            v.GetString("server.address"),
			DebugAddress:       v.GetString("server.debugAddress"),
			Host:               v.GetString("server.host"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
		},
		Store: StoreConfig{
			Engine:         CleanString(v.GetString("store.engine"), true),
			URL:            v.GetString("store.url"),
			ServiceAccount: v.GetString("store.serviceAccount"),
			Fixture:        v.GetString("store.fixture"),
		},
		OneSignal: OneSignalConfig{
			AppID:    v.GetString("onesignal.appId"),
			APIKey:   v.GetString("onesignal.apiKey"),
			Endpoint: v.GetString("onesignal.endpoint"),
		},
		Dispatch: DispatchConfig{
			BodyLimit:    v.GetInt("dispatch.bodyLimit"),
			ProbeMedia:   v.GetBool("dispatch.probeMedia"),
			ProbeTimeout: v.GetDuration("dispatch.probeTimeout"),
			Concurrency:  v.GetInt("dispatch.concurrency"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
		},
		Alerts: AlertsConfig{
			Recipients:     v.GetStringSlice("alerts.recipients"),
			FromEmail:      v.GetString("alerts.fromEmail"),
			SendgridAPIKey: v.GetString("alerts.sendgridApiKey"),
		},
	}
}
