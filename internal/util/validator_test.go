package util

import (
	"strings"
	"testing"
)

type sampleInput struct {
	Email  string `json:"email" validate:"required,email"`
	CNPJ   string `json:"cnpj" validate:"required,cnpj"`
	Senha  string `json:"password" validate:"required,min=6"`
	Repete string `json:"confirmPassword" validate:"eqfield=Senha"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	fields := ValidateStruct(sampleInput{Email: "bad-email", CNPJ: "123", Senha: "abc", Repete: "xyz"})

	for _, key := range []string{"email", "cnpj", "password", "confirmPassword"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected error for %s, got %v", key, fields)
		}
	}
	if !strings.Contains(fields["cnpj"], "14") {
		t.Fatalf("expected 14-digit message, got %q", fields["cnpj"])
	}
}

func TestValidateStructAcceptsPunctuatedCNPJ(t *testing.T) {
	fields := ValidateStruct(sampleInput{Email: "ana@x.com", CNPJ: "11.222.333/0001-44", Senha: "abcdef", Repete: "abcdef"})
	if fields != nil {
		t.Fatalf("expected no errors, got %v", fields)
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("11.222.333/0001-44"); got != "11222333000144" {
		t.Fatalf("unexpected digits %q", got)
	}
}

func TestCommissionCode(t *testing.T) {
	code := CommissionCode()
	if !strings.HasPrefix(code, "REP-") || len(code) != 12 {
		t.Fatalf("unexpected code %q", code)
	}
}
