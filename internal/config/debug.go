package config

import "os"

func IsDebug() bool {
	return os.Getenv("CLAIRE_DEBUG") == "1"
}
