package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger padrão do serviço.
// Em env "local" usa o modo development (saída legível no terminal).
func New(serviceName string, env string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// WithSession anexa o id da sessão de edição como campo padrão.
// Usado pelo coupon-builder para correlacionar logs de uma mesma sessão.
func WithSession(l *zap.Logger, sessionID string) *zap.Logger {
	return l.With(zap.String("sessionId", sessionID))
}
