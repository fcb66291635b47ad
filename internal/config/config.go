package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string `env:"ADDR" envDefault:":8080"`
	RosterPath   string `env:"ROSTER_PATH" envDefault:"assets/students.csv"`
	MessagesPath string `env:"MESSAGES_PATH" envDefault:"assets/messages.csv"`

	// FrameInterval is how often rooms tick their animators and push
	// frames; the animation itself is dt-based and tolerates jitter.
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"33ms"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load reads .env if one exists, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return env.ParseAs[Config]()
}
