package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jhoicas/stockflow-api/internal/application/ports"
	"github.com/jhoicas/stockflow-api/pkg/config"
	"github.com/jhoicas/stockflow-api/pkg/logger"
)

var _ ports.EventSink = (*RedisSink)(nil)

// RedisSink publica eventos de dominio vía Redis pub/sub para el fan-out de
// notificaciones. Entrega best-effort, at-most-once: un Publish fallido se
// registra y se descarta; nunca propaga el error al caller.
type RedisSink struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisClient crea el cliente Redis con la configuración de la app.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// NewRedisSink construye el sink sobre un cliente ya conectado.
func NewRedisSink(client *redis.Client, log *logger.Logger) *RedisSink {
	return &RedisSink{client: client, log: log}
}

// Publish serializa el payload a JSON y lo publica en el canal. Fire-and-forget.
func (s *RedisSink) Publish(ctx context.Context, channel string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("channel", channel).Msg("serializar evento")
		return
	}
	if err := s.client.Publish(ctx, channel, body).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("publicar evento (descartado)")
	}
}

var _ ports.EventSink = (*LogSink)(nil)

// LogSink sink de respaldo cuando Redis no está configurado: solo registra el evento.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink de log.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Publish registra el evento en el log.
func (s *LogSink) Publish(_ context.Context, channel string, payload interface{}) {
	s.log.Debug().Str("channel", channel).Interface("payload", payload).Msg("evento de dominio")
}
