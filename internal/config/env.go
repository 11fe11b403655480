package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

// LoadEnv loads environment variables from a .env file if one exists in the
// working directory or the project root. Missing files are not an error.
func LoadEnv() {
	envOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			if wd, err := os.Getwd(); err == nil {
				parent := filepath.Join(filepath.Dir(wd), ".env")
				if _, err := os.Stat(parent); err == nil {
					envFile = parent
				}
			}
		}
		_ = godotenv.Load(envFile)
	})
}
