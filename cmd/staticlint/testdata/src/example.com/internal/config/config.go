package config

import "os"

func Addr() string {
	return os.Getenv("ADDR")
}
