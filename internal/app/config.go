package app

import (
	"github.com/yungbote/echoloop-backend/internal/platform/envutil"
	"github.com/yungbote/echoloop-backend/internal/platform/logger"
)

type Config struct {
	Port         string
	JWTSecretKey string
	RedisAddr    string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:         envutil.String("PORT", "8080"),
		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),
		RedisAddr:    envutil.String("REDIS_ADDR", ""),
	}
	if cfg.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; using insecure default")
		cfg.JWTSecretKey = "defaultsecret"
	}
	return cfg
}
