package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finveiculos/painel-representantes/internal/admin"
	"github.com/finveiculos/painel-representantes/internal/auth"
	"github.com/finveiculos/painel-representantes/internal/db"
	"github.com/finveiculos/painel-representantes/internal/service"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	// hash não precisa de banco
	if cmd == "hash" {
		if err := runHash(args); err != nil {
			log.Fatal().Err(err).Msg("falha ao gerar hash")
		}
		return
	}

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	admins := service.NewAdminService(admin.NewRepository(pool))

	switch cmd {
	case "migrate":
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("falha ao aplicar schema")
		}
		log.Info().Msg("schema aplicado")
	case "create-admin":
		if err := runCreate(ctx, admins, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao criar administrador")
		}
	case "reset-password":
		if err := runResetPassword(ctx, admins, args); err != nil {
			log.Fatal().Err(err).Msg("falha ao redefinir senha")
		}
	case "list-admins":
		if err := runList(ctx, admins); err != nil {
			log.Fatal().Err(err).Msg("falha ao listar administradores")
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "admin CLI")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  admin migrate")
	fmt.Fprintln(os.Stderr, "  admin create-admin --name \"Maria\" --email maria@finveiculos.com.br --password 'SenhaForte123'")
	fmt.Fprintln(os.Stderr, "  admin reset-password --email maria@finveiculos.com.br --password 'NovaSenha123'")
	fmt.Fprintln(os.Stderr, "  admin list-admins")
	fmt.Fprintln(os.Stderr, "  admin hash <senha>")
}

func runHash(args []string) error {
	if len(args) < 1 {
		return errors.New("informe a senha")
	}
	hash, err := auth.Hash(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runCreate(ctx context.Context, admins *service.AdminService, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		name     = fs.String("name", "", "nome do administrador")
		email    = fs.String("email", "", "email de acesso")
		password = fs.String("password", "", "senha inicial (mínimo 8 caracteres)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := admins.CreateAdmin(ctx, *name, *email, *password)
	if err != nil {
		return err
	}

	output, _ := json.MarshalIndent(created, "", "  ")
	fmt.Println(string(output))
	return nil
}

func runResetPassword(ctx context.Context, admins *service.AdminService, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		email    = fs.String("email", "", "email do administrador")
		password = fs.String("password", "", "nova senha (mínimo 8 caracteres)")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("email é obrigatório")
	}

	if err := admins.ResetAdminPassword(ctx, *email, *password); err != nil {
		return err
	}
	log.Info().Str("email", *email).Msg("senha redefinida")
	return nil
}

func runList(ctx context.Context, admins *service.AdminService) error {
	list, err := admins.ListAdmins(ctx)
	if err != nil {
		return err
	}

	if len(list) == 0 {
		fmt.Println("nenhum administrador cadastrado")
		return nil
	}

	encoded, _ := json.MarshalIndent(list, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
