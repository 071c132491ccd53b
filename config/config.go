// Package config loads the optional lir.toml analysis options.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// ConfigName is the default options file; the CLIs resolve it against the
// working directory unless --config names another path.
const ConfigName = "lir.toml"

type Config struct {
	// Entry seeds the call graph. The historical toolchain always analyzed
	// a function literally named "test".
	Entry string `toml:"entry"`
	// AddrofGlobals includes address-taken int globals in the weak-update
	// set of the integer analyses. Disable for compatibility with the
	// historical analyses, which only considered locals and parameters.
	AddrofGlobals bool `toml:"addrof-globals"`
}

var DefaultConfig = Config{
	Entry:         "test",
	AddrofGlobals: true,
}

func mergeConfigs(cfg Config, ocfg Config, meta toml.MetaData) Config {
	if meta.IsDefined("entry") {
		cfg.Entry = ocfg.Entry
	}
	if meta.IsDefined("addrof-globals") {
		cfg.AddrofGlobals = ocfg.AddrofGlobals
	}
	return cfg
}

// Load reads path over the defaults. A missing file yields the defaults;
// unknown keys are an error.
func Load(path string) (Config, error) {
	var ocfg Config
	meta, err := toml.DecodeFile(path, &ocfg)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig, nil
		}
		return Config{}, err
	}
	if len(meta.Undecoded()) > 0 {
		return Config{}, &UnknownKeysError{Keys: meta.Undecoded()}
	}
	return mergeConfigs(DefaultConfig, ocfg, meta), nil
}

type UnknownKeysError struct {
	Keys []toml.Key
}

func (e *UnknownKeysError) Error() string {
	s := "unknown keys in configuration:"
	for _, k := range e.Keys {
		s += " " + k.String()
	}
	return s
}
