// Package config holds the environment-variable-driven tunables for the
// virtual machine, parsed with caarlos0/env.
package config

import "github.com/caarlos0/env/v6"

// VM carries the runtime limits that the reference VM hardcodes as
// constants; exposing them as environment variables lets operators tune
// frame depth and stack size without a rebuild. MaxFrames is a hard limit on
// call depth; StackPerFrame only sizes the operand stack's initial capacity
// and does not cap it.
type VM struct {
	MaxFrames     int `env:"EMBER_MAX_FRAMES" envDefault:"64"`
	StackPerFrame int `env:"EMBER_STACK_PER_FRAME" envDefault:"256"`
}

// Load parses the VM configuration from the process environment, applying
// defaults for any variable that is unset.
func Load() (VM, error) {
	var cfg VM
	if err := env.Parse(&cfg); err != nil {
		return VM{}, err
	}
	return cfg, nil
}
