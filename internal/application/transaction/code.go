package transaction

import (
	"crypto/rand"
	"fmt"
	"time"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ" // base36

// maxCodeAttempts reintentos de creación ante colisión del código (constraint único).
const maxCodeAttempts = 5

// generateCode genera un código legible TRX-<yyyymmdd>-<4 base36 aleatorios>.
// La unicidad real la garantiza el constraint único de la BD: ante colisión el
// caller reintenta con un sufijo nuevo. Nunca se deriva de conteos de filas.
func generateCode(now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generar código: %w", err)
	}
	suffix := make([]byte, 4)
	for i, b := range buf {
		suffix[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("TRX-%s-%s", now.Format("20060102"), suffix), nil
}
