package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Configuration struct {
	Server struct {
		Host string `envconfig:"SERVER_HOST"`
		Port string `envconfig:"SERVER_PORT" default:"8080"`
	}
	Database struct {
		Address            string        `envconfig:"MONGO_ADDRESS" required:"true"`
		DatabaseName       string        `envconfig:"MONGO_DATABASE" default:"puzzles"`
		PuzzleCollection   string        `envconfig:"MONGO_PUZZLE_COLLECTION" default:"puzzles"`
		ProgressCollection string        `envconfig:"MONGO_PROGRESS_COLLECTION" default:"progress"`
		Timeout            time.Duration `envconfig:"DB_TIMEOUT" default:"1s"`
	}
	Stockfish struct {
		Path  string   `envconfig:"STOCKFISH_PATH" default:"stockfish"`
		Args  []string `envconfig:"STOCKFISH_ARGS"`
		Depth int      `envconfig:"STOCKFISH_DEPTH" default:"10"`
	}
	Trainer struct {
		ReplayDelay time.Duration `envconfig:"REPLAY_DELAY" default:"500ms"`
	}
	Log struct {
		Level       string `envconfig:"LOG_LEVEL" default:"info"`
		Development bool   `envconfig:"LOG_DEVELOPMENT"`
	}
}

// Addr is the listen address for the HTTP server.
func (c *Configuration) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func InitConfig() (*Configuration, error) {
	config := &Configuration{}
	err := envconfig.Process("", config)
	return config, err
}
