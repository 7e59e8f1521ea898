package publishers

import "github.com/Adda-Baaj/onefootball-harvester/internal/logger"

// Logger is the harvester's structured logger; publishers log delivery and failures through it.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	return logger.Ensure(log)
}
