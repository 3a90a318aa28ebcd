// Package config is used to load the run configuration
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"deobinject/internal/deob"
	"deobinject/internal/inject"
)

type inputs struct {
	Vanilla      string `mapstructure:"vanilla"`
	Deobfuscated string `mapstructure:"deobfuscated"`
	Contract     string `mapstructure:"contract"`
}

type injection struct {
	ClientClass       string `mapstructure:"client-class"`
	AnnotationPackage string `mapstructure:"annotation-package"`
	VerifyGetters     bool   `mapstructure:"verify-getters"`
}

// Config is the configuration struct
type Config struct {
	Input  inputs    `mapstructure:"input"`
	Inject injection `mapstructure:"inject"`
	Output string    `mapstructure:"output"`
	Debug  bool      `mapstructure:"debug"`
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("inject.client-class", inject.DefaultClientClass)
	v.SetDefault("inject.annotation-package", deob.DefaultPackage)
	v.SetDefault("output", "out")
}

func (c *Config) verify() error {
	if c.Input.Vanilla == "" {
		return fmt.Errorf("config: input.vanilla must be set")
	}
	if c.Input.Deobfuscated == "" {
		return fmt.Errorf("config: input.deobfuscated must be set")
	}
	if c.Input.Contract == "" {
		return fmt.Errorf("config: input.contract must be set")
	}
	if c.Input.Vanilla == c.Input.Deobfuscated {
		return fmt.Errorf("config: vanilla and deobfuscated inputs cannot be the same")
	}
	if c.Output == "" {
		return fmt.Errorf("config: output must be set")
	}
	if c.Output == c.Input.Vanilla {
		return fmt.Errorf("config: output would overwrite the vanilla input")
	}
	if c.Inject.ClientClass == "" {
		c.Inject.ClientClass = inject.DefaultClientClass
	}
	if c.Inject.AnnotationPackage == "" {
		c.Inject.AnnotationPackage = deob.DefaultPackage
	}
	return nil
}

// Options returns the injector options selected by c.
func (c *Config) Options() inject.Options {
	return inject.Options{
		ClientClass:   c.Inject.ClientClass,
		Vocabulary:    deob.NewVocabulary(c.Inject.AnnotationPackage),
		VerifyGetters: c.Inject.VerifyGetters,
	}
}

// LoadConfig loads the configuration from v
func LoadConfig(v *viper.Viper) (*Config, error) {
	var c *Config

	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}
	if c == nil {
		c = &Config{}
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return c, nil
}
