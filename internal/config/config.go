package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Application struct {
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port"`
	Database Database `koanf:"db"`
	Cache    Cache    `koanf:"cache"`
	Reports  Reports  `koanf:"reports"`
}

type Database struct {
	Driver string `koanf:"driver"`
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
	// Path is the database file used by the sqlite driver.
	Path string `koanf:"path"`
}

type Cache struct {
	// TTL of a cached area summary, in seconds.
	TTL           int    `koanf:"ttl"`
	RedisAddr     string `koanf:"redisaddr"`
	RedisPassword string `koanf:"redispassword"`
	RedisDB       int    `koanf:"redisdb"`
}

type Reports struct {
	// Parallelism bounds the per-unit and per-classifier sub-aggregations running at once. 1 means sequential.
	Parallelism int `koanf:"parallelism"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Database: Database{
			Driver: DriverPostgres,
			Host:   "localhost",
			Port:   5432,
			User:   "munitrack",
			Pass:   "",
			Name:   "munitrack",
			Schema: "munitrack",
			Path:   "munitrack.db",
		},
		Cache: Cache{
			TTL: 300,
		},
		Reports: Reports{
			Parallelism: 4,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "MUNITRACK_",
		TransformFunc: func(k, v string) (string, any) {
			// MUNITRACK_DB_HOST -> db.host
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "MUNITRACK_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	if app.Reports.Parallelism < 1 {
		app.Reports.Parallelism = 1
	}

	return app, nil
}
