package secrets

import "os"

// Environment is the variable table ExportToEnvironment writes into.
type Environment interface {
	Setenv(key, value string) error
}

// OSEnvironment writes to the process environment.
type OSEnvironment struct{}

func (OSEnvironment) Setenv(key, value string) error {
	return os.Setenv(key, value)
}
