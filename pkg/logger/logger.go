package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger

// Init inicializa el logger global. En APP_ENV=development se usa la configuración
// de desarrollo (consola, nivel debug); en el resto, JSON de producción.
func Init(env string) {
	var err error
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.MessageKey = "msg"
		cfg.EncoderConfig.LevelKey = "level"
		cfg.EncoderConfig.CallerKey = "caller"
	}

	log, err = cfg.Build()
	if err != nil {
		panic(err)
	}
}

// Logger retorna el logger estructurado; sin Init devuelve uno que no escribe nada.
func Logger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Named devuelve un logger hijo con el nombre del servicio.
func Named(service string) *zap.Logger {
	return Logger().Named(service).With(zap.String("service", service))
}
