package transaction

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// El código debe seguir el formato TRX-<yyyymmdd>-<sufijo de 4 base36>.
func TestGenerateCode_Formato(t *testing.T) {
	now := time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)

	code, err := generateCode(now)
	require.NoError(t, err)

	parts := strings.Split(code, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "TRX", parts[0])
	assert.Equal(t, "20250114", parts[1], "la parte de fecha viene del reloj recibido")
	assert.Len(t, parts[2], 4)
	for _, ch := range parts[2] {
		assert.Contains(t, codeAlphabet, string(ch), "el sufijo solo usa el alfabeto base36")
	}
}

// El sufijo es aleatorio, no secuencial: generar muchos códigos el mismo día
// debe producir más de un sufijo distinto.
func TestGenerateCode_SufijoAleatorio(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		code, err := generateCode(now)
		require.NoError(t, err)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 1, "los sufijos no deben ser constantes")
}
