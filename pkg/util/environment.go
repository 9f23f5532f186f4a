package util

import (
	"os"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		name, value, found := strings.Cut(variable, "=")
		if !found {
			continue
		}

		environmentVariables[name] = value
	}

	return environmentVariables
}

// EnvironmentFlag reports whether a YES/NO style variable is switched on
func EnvironmentFlag(env map[string]string, name string) bool {
	switch strings.ToUpper(env[name]) {
	case "YES", "TRUE", "1":
		return true
	default:
		return false
	}
}
