package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

const defaultEnvPrefix = "JWTSIGN_"

type logConfig struct {
	Level zerolog.Level `koanf:"level"`
}

type keyConfig struct {
	// File holds PEM key material or an HMAC secret.
	File string `koanf:"file"`
}

type signConfig struct {
	Algorithm string `koanf:"algorithm"`
	Issuer    string `koanf:"issuer"`
	KeyID     string `koanf:"keyid"`
	// ExpiresIn is applied when no --exp flag is given. Zero means no exp claim.
	ExpiresIn int64 `koanf:"expires_in"`
}

type verifyConfig struct {
	Algorithms     []string `koanf:"algorithms"`
	Audience       []string `koanf:"audience"`
	Issuer         []string `koanf:"issuer"`
	ClockTolerance int64    `koanf:"clock_tolerance"`
}

type config struct {
	Log    logConfig    `koanf:"log"`
	Key    keyConfig    `koanf:"key"`
	Sign   signConfig   `koanf:"sign"`
	Verify verifyConfig `koanf:"verify"`
}

func defaultConfig() config {
	return config{
		Log:  logConfig{Level: zerolog.WarnLevel},
		Sign: signConfig{Algorithm: "HS256"},
	}
}

// loadConfig layers the defaults, an optional YAML file and environment
// variables, in that order. A variable like JWTSIGN_SIGN_EXPIRES__IN maps to
// sign.expires_in: "_" separates levels and "__" stands for a literal underscore.
func loadConfig(configFile, envPrefix string) (config, error) {
	conf := defaultConfig()

	parser := koanf.New(".")
	if err := parser.Load(structs.Provider(conf, "koanf"), nil); err != nil {
		return conf, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return conf, fmt.Errorf("read config file: %w", err)
		}
		if err := parser.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return conf, fmt.Errorf("parse config file %s: %w", configFile, err)
		}
	}

	if err := parser.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, val string) (string, any) {
			tmp := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "__", `\:\`)
			tmp = strings.ReplaceAll(tmp, "_", ".")
			return strings.ReplaceAll(tmp, `\:\`, "_"), val
		},
	}), nil); err != nil {
		return conf, fmt.Errorf("load environment: %w", err)
	}

	err := parser.UnmarshalWithConf("", &conf, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				logLevelDecodeHookFunc,
			),
			Result:           &conf,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return conf, fmt.Errorf("decode config: %w", err)
	}
	return conf, nil
}

// Decode zerolog levels from strings.
func logLevelDecodeHookFunc(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	if to != reflect.TypeOf(zerolog.Level(0)) {
		return data, nil
	}

	level, err := zerolog.ParseLevel(strings.ToLower(data.(string)))
	if err != nil {
		return zerolog.InfoLevel, nil
	}
	return level, nil
}

func newLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
