package config

import "time"

type SecurityConfig interface {
	GetHashScheme() string
	GetHashCost() int
	GetHashSalt() string
	GetLoginThrottleRate() float64
	GetLoginThrottleBurst() int
}

type DirectoryConfig interface {
	GetDirectory() DirectorySettings
}

var (
	_ SecurityConfig  = (*Settings)(nil)
	_ DirectoryConfig = (*Settings)(nil)
)

func (s *Settings) GetHashScheme() string {
	return s.Hash.Scheme
}

func (s *Settings) GetHashCost() int {
	return s.Hash.Cost
}

// GetHashSalt is appended to the password by the keyed digest schemes only
func (s *Settings) GetHashSalt() string {
	return s.Hash.Salt
}

// GetLoginThrottleRate is the number of login attempts allowed per second and address
func (s *Settings) GetLoginThrottleRate() float64 {
	return s.LoginThrottle.PerMinute / float64(time.Minute/time.Second)
}

func (s *Settings) GetLoginThrottleBurst() int {
	return s.LoginThrottle.Burst
}

func (s *Settings) GetDirectory() DirectorySettings {
	return s.Directory
}
