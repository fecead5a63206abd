// Package cfg layers configuration sources: flag defaults, a YAML file and
// explicit overrides, later sources winning.
package cfg

import (
	"os"

	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Source is a generic configuration source. It is passed a pointer to the
// destination, which may already hold data from previous sources.
type Source func(interface{}) error

// Unmarshal applies the sources to dst in order.
func Unmarshal(dst interface{}, sources ...Source) error {
	if len(sources) == 0 {
		panic("No sources supplied to cfg.Unmarshal(). This is most likely a programming issue and should never happen. Check the code!")
	}
	for _, source := range sources {
		if err := source(dst); err != nil {
			return errors.Wrap(err, "sourcing")
		}
	}
	return nil
}

// Defaults sets dst to the default values of the flags it registers. dst
// must implement flagext.Registerer.
func Defaults() Source {
	return func(dst interface{}) error {
		r, ok := dst.(flagext.Registerer)
		if !ok {
			return errors.Errorf("%T does not register flags", dst)
		}
		flagext.DefaultValues(r)
		return nil
	}
}

// YAMLFile reads the YAML file at path into dst. Unknown fields are an
// error. With expandEnv, ${VAR} references are replaced by environment
// variables first. An empty path is a no-op.
func YAMLFile(path string, expandEnv bool) Source {
	return func(dst interface{}) error {
		if path == "" {
			return nil
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "Error reading config file")
		}
		if expandEnv {
			buf = []byte(os.ExpandEnv(string(buf)))
		}
		return YAML(buf)(dst)
	}
}

// YAML unmarshals buf into dst.
func YAML(buf []byte) Source {
	return func(dst interface{}) error {
		return errors.Wrap(yaml.UnmarshalStrict(buf, dst), "parsing YAML")
	}
}

// Override calls fn with dst, for values that must win over every file,
// such as command line flags the user set.
func Override[T any](fn func(*T)) Source {
	return func(dst interface{}) error {
		t, ok := dst.(*T)
		if !ok {
			return errors.Errorf("cannot override %T", dst)
		}
		fn(t)
		return nil
	}
}
