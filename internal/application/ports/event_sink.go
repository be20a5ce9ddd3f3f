package ports

import "context"

// Canales de notificación de cambios para los consumidores externos (fan-out).
const (
	ChannelInventoryChanged   = "inventory.changed"
	ChannelTransactionChanged = "transaction.changed"
)

// EventSink publica eventos de dominio fire-and-forget. Las implementaciones no
// retornan error: una publicación fallida se registra y se descarta, nunca
// bloquea ni corrompe la escritura del ledger (que ya fue commiteada).
type EventSink interface {
	Publish(ctx context.Context, channel string, payload interface{})
}
