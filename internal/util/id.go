package util

import (
	"strings"

	"github.com/google/uuid"
)

// CommissionCode gera o código curto exibido ao representante ativo.
func CommissionCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "REP-" + strings.ToUpper(raw[:8])
}
