package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CATREE_"

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadEnvFiles loads .env style files into the process environment.
// Variables already set are kept. Missing files are skipped; with no
// arguments ".env" in the working directory is tried.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// ReadEnvFile parses a .env style file without touching the environment.
func ReadEnvFile(file string) (LookupFunc, error) {
	vars, err := godotenv.Read(file)
	if err != nil {
		return nil, err
	}
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}, nil
}

// ApplyEnv applies CATREE_* overrides found through lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("HASH_PREFIX", &c.Naming.HashPrefix)
	e.str("RECORD_PREFIX", &c.Naming.RecordPrefix)
	e.integer("MAX_LEN", &c.Naming.MaxLen)

	e.str("SERVER_ADDRESS", &c.Server.Address)
	e.str("SERVER_NAME", &c.Server.Name)
	e.str("TREE", &c.Server.Tree)
	e.str("ROOT", &c.Server.Root)
	e.str("INCLUDE_DIR", &c.Server.IncludeDir)
	e.integer("MAX_MESSAGE_SIZE", &c.Server.MaxMessageSize)

	e.str("CLIENT_ADDRESS", &c.Client.Address)
	e.duration("CONNECT_TIMEOUT", &c.Client.ConnectTimeout)
	e.duration("REQUEST_TIMEOUT", &c.Client.RequestTimeout)
	e.duration("BACKOFF_INITIAL", &c.Client.BackoffInitial)
	e.duration("BACKOFF_MAX", &c.Client.BackoffMax)

	e.str("LOG_LEVEL", &c.Log.Level)
	e.str("LOG_FILE", &c.Log.File)
	e.str("PROTOCOL_LOG", &c.Log.Protocol)
	e.boolean("PROTOCOL_FRAMES", &c.Log.ProtocolFrames)

	e.boolean("ADVERTISE", &c.Discovery.Advertise)
	e.str("MDNS_INTERFACE", &c.Discovery.Interface)

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup LookupFunc
	errs   []error
}

func (e *envReader) get(key string) (string, string, bool) {
	name := EnvPrefix + key
	v, ok := e.lookup(name)
	return name, v, ok
}

func (e *envReader) str(key string, dst *string) {
	if _, v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	name, v, ok := e.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = n
}

func (e *envReader) boolean(key string, dst *bool) {
	name, v, ok := e.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = b
}

func (e *envReader) duration(key string, dst *time.Duration) {
	name, v, ok := e.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", name, err))
		return
	}
	*dst = d
}
