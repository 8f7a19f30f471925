package config

type Storage struct {
	databaseURL  string
	redisAddr    string
	seedOnStart  bool
	initPassword string
}

var _ StorageConfig = Storage{}

// GetDatabaseURL returns the Postgres DSN. Empty selects the in-memory repositories.
func (s Storage) GetDatabaseURL() string {
	return s.databaseURL
}

// GetRedisAddr returns the Redis address for login admission control. Empty selects
// the in-process limiter.
func (s Storage) GetRedisAddr() string {
	return s.redisAddr
}

func (s Storage) GetSeedOnStart() bool {
	return s.seedOnStart
}

func (s Storage) GetInitPassword() string {
	return s.initPassword
}
