package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

type Config struct {
	Env          string
	Debug        bool
	AppName      string
	Build        string
	SecretKey    string
	RollbarToken string
	Storage      struct {
		Engine         string
		Path           string
		DataVersion    string
		StrictDecoding bool
	}
	Session struct {
		Persist bool
	}
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the value of ENV, eg: DEV_STORAGE_ENGINE=sqlite
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "EduVersePro")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "k2w!0z@u7p$n3x=ed&v8#r5q(b1m^c+s4f)j6h_t9l%a-g")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("storage.engine", StoreSQLite)
	conf.SetDefault("storage.path", filepath.Join(os.TempDir(), "eduverse.db"))
	conf.SetDefault("storage.dataVersion", "1.2")
	conf.SetDefault("storage.strictDecoding", false)
	conf.SetDefault("session.persist", true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		conf.SetDefault("storage.engine", StoreMemory)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	if dir, ok := configDir(); ok {
		dotEnvPath := filepath.Join(dir, ".env."+strings.ToLower(env))
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}
	conf.AutomaticEnv()

	cfg := &Config{
		Env:          env,
		Debug:        conf.GetBool("debug"),
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
	cfg.Storage.Engine = CleanString(conf.GetString("storage.engine"), true /* lower */)
	cfg.Storage.Path = conf.GetString("storage.path")
	cfg.Storage.DataVersion = conf.GetString("storage.dataVersion")
	cfg.Storage.StrictDecoding = conf.GetBool("storage.strictDecoding")
	cfg.Session.Persist = conf.GetBool("session.persist")
	return cfg
}

// configDir looks for a "config" directory from the working directory upwards.
// go-test changes the working directory to the package being tested, hence the walk.
func configDir() (string, bool) {
	if dir := os.Getenv("EDUVERSE_CONFIG_DIR"); dir != "" {
		return dir, true
	}
	currDir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(currDir, "config")
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			return candidate, true
		}
		newDir := filepath.Dir(currDir)
		if newDir == currDir {
			return "", false
		}
		currDir = newDir
	}
}
