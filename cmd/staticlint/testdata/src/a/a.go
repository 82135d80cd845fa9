package a

import "os"

func port() string {
	if v, ok := os.LookupEnv("PORT"); ok { // want "os.LookupEnv outside of internal/config"
		return v
	}
	return os.Getenv("ADDR") // want "os.Getenv outside of internal/config"
}

func all() int {
	f := os.Environ // want "os.Environ outside of internal/config"
	return len(f())
}

func unrelated() string {
	return os.TempDir()
}
