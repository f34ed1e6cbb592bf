// Package repository implementa o armazenamento em PostgreSQL para
// perfis de assinatura, conexões, campanhas de disparo com seus
// destinatários e transações de pagamento. Fornece as operações de
// criação, leitura, atualização e remoção usadas pelos serviços e
// pelas varreduras diárias.
package repository

import (
	"context"
	"fmt"

	"database/sql"

	// Registro do driver pgx para uso com database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage encapsula a conexão com o PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New abre a conexão com o PostgreSQL e confirma que está acessível.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady verifica se o esquema já foi migrado.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'campaigns'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table campaigns missing or query error: %w", err)
	}
	return nil
}
