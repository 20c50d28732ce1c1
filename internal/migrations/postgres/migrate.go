package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"jdpanel/pkg/db/postgres"
	"jdpanel/pkg/logger"
)

// Statements are idempotent and run in order inside one transaction.
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS contatos (
		id               uuid PRIMARY KEY,
		nome             text,
		telefone         text NOT NULL,
		email            text,
		origem_lead      text NOT NULL DEFAULT 'Manual (CRM)',
		lead_score       integer NOT NULL DEFAULT 50 CHECK (lead_score BETWEEN 0 AND 100),
		fase_funil       text NOT NULL DEFAULT 'Triagem',
		interesse_atual  text NOT NULL DEFAULT 'manutenção',
		ultima_interacao timestamptz,
		created_at       timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS contatos_telefone_key ON contatos (telefone)`,
	`CREATE INDEX IF NOT EXISTS contatos_recent_idx ON contatos (ultima_interacao DESC NULLS LAST, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS contatos_fase_funil_idx ON contatos (fase_funil)`,
	`CREATE TABLE IF NOT EXISTS ficha_tecnica_protese (
		contato_id                 uuid PRIMARY KEY REFERENCES contatos (id) ON DELETE CASCADE,
		modelo_base                text,
		cor_cabelo                 text,
		tipo_fixacao               text,
		data_ultima_compra_protese date
	)`,
	`CREATE TABLE IF NOT EXISTS memory_long (
		id         uuid PRIMARY KEY,
		contato_id uuid NOT NULL REFERENCES contatos (id) ON DELETE CASCADE,
		categoria  text NOT NULL,
		conteudo   text NOT NULL,
		relevancia integer NOT NULL DEFAULT 0,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS memory_long_contato_idx ON memory_long (contato_id, relevancia DESC, created_at DESC)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	log.Info("Running Postgres migrations", "statements", len(Statements))

	tm := postgres.NewTransactionManager(pool)
	err := tm.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		conn := postgres.Conn(txCtx, pool)
		for i, stmt := range Statements {
			if _, err := conn.Exec(txCtx, stmt); err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("Postgres migrations applied")
	return nil
}
