package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	contactserrors "jdpanel/internal/contacts/errors"
	"jdpanel/pkg/config"
	"jdpanel/pkg/db/postgres"
	"jdpanel/pkg/model"
)

const contactColumns = `id, nome, telefone, email, origem_lead, lead_score, fase_funil, interesse_atual, ultima_interacao, created_at`

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	FindByID(ctx context.Context, id string) (*model.Contact, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Contact, error)
	Count(ctx context.Context) (int64, error)
	Search(ctx context.Context, term string, limit int) ([]*model.Contact, error)
	UpdateName(ctx context.Context, id, name string) error
	TouchLastInteraction(ctx context.Context, id string, at time.Time) error
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByFunnelStage(ctx context.Context, stage string) (int64, error)

	CreateTechnicalFile(ctx context.Context, file *model.TechnicalFile) error
	FindTechnicalFile(ctx context.Context, contactID string) (*model.TechnicalFile, error)
	FindMemories(ctx context.Context, contactID string) ([]model.MemoryNote, error)

	ExecuteTransaction(ctx context.Context, fn postgres.TransactionFunc) error
}

type pgContactRepository struct {
	cfg       *config.Config
	pool      *pgxpool.Pool
	txManager postgres.TransactionManager
}

func NewPostgresContactRepository(cfg *config.Config) ContactRepository {
	return &pgContactRepository{
		cfg:       cfg,
		pool:      cfg.Client.Postgres,
		txManager: postgres.NewTransactionManager(cfg.Client.Postgres),
	}
}

// withTimeout bounds a statement by timeout unless ctx already expires sooner.
func (r *pgContactRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", contactserrors.ErrInvalidID, id)
	}
	return parsed, nil
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	var id uuid.UUID
	err := row.Scan(
		&id,
		&c.Name,
		&c.Phone,
		&c.Email,
		&c.LeadOrigin,
		&c.LeadScore,
		&c.FunnelStage,
		&c.CurrentInterest,
		&c.LastInteraction,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ID = id.String()
	return &c, nil
}

func collectContacts(rows pgx.Rows) ([]*model.Contact, error) {
	defer rows.Close()

	contacts := make([]*model.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (r *pgContactRepository) Create(ctx context.Context, c *model.Contact) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id := uuid.New()
	c.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	const q = `
		INSERT INTO contatos (id, nome, telefone, email, origem_lead, lead_score, fase_funil, interesse_atual, ultima_interacao, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := postgres.Conn(ctx, r.pool).Exec(ctx, q,
		id,
		c.Name,
		c.Phone,
		c.Email,
		c.LeadOrigin,
		c.LeadScore,
		c.FunnelStage,
		c.CurrentInterest,
		c.LastInteraction,
		c.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", contactserrors.ErrDuplicatePhone, c.Phone)
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}

	c.ID = id.String()
	return nil
}

func (r *pgContactRepository) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	contactID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+contactColumns+` FROM contatos WHERE id = $1`, contactID)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", contactserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find contact: %w", err)
	}
	return c, nil
}

// FindAll orders by last interaction; contacts never interacted with come last.
func (r *pgContactRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Contact, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	q := `SELECT ` + contactColumns + ` FROM contatos
		ORDER BY ultima_interacao DESC NULLS LAST, created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	return collectContacts(rows)
}

func (r *pgContactRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM contatos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// Search matches name or phone. term must already be LIKE-escaped.
func (r *pgContactRepository) Search(ctx context.Context, term string, limit int) ([]*model.Contact, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	q := `SELECT ` + contactColumns + ` FROM contatos
		WHERE nome ILIKE $1 OR telefone ILIKE $1
		ORDER BY ultima_interacao DESC NULLS LAST, created_at DESC
		LIMIT $2`
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, q, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return collectContacts(rows)
}

func (r *pgContactRepository) UpdateName(ctx context.Context, id, name string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	contactID, err := parseID(id)
	if err != nil {
		return err
	}

	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, `UPDATE contatos SET nome = $1 WHERE id = $2`, name, contactID)
	if err != nil {
		return fmt.Errorf("failed to update contact name: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", contactserrors.ErrNotFound, id)
	}
	return nil
}

// TouchLastInteraction never moves ultima_interacao backwards, so replayed
// events are harmless.
func (r *pgContactRepository) TouchLastInteraction(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	contactID, err := parseID(id)
	if err != nil {
		return err
	}

	const q = `
		UPDATE contatos SET ultima_interacao = $1
		WHERE id = $2 AND (ultima_interacao IS NULL OR ultima_interacao < $1)`
	if _, err := postgres.Conn(ctx, r.pool).Exec(ctx, q, at.UTC(), contactID); err != nil {
		return fmt.Errorf("failed to touch contact: %w", err)
	}
	return nil
}

func (r *pgContactRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM contatos WHERE created_at >= $1`, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count new contacts: %w", err)
	}
	return count, nil
}

func (r *pgContactRepository) CountByFunnelStage(ctx context.Context, stage string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	err := postgres.Conn(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM contatos WHERE fase_funil = $1`, stage).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contacts by stage: %w", err)
	}
	return count, nil
}

func (r *pgContactRepository) CreateTechnicalFile(ctx context.Context, file *model.TechnicalFile) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	contactID, err := parseID(file.ContactID)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO ficha_tecnica_protese (contato_id, modelo_base, cor_cabelo, tipo_fixacao, data_ultima_compra_protese)
		VALUES ($1, $2, $3, $4, $5)`
	_, err = postgres.Conn(ctx, r.pool).Exec(ctx, q,
		contactID,
		file.BaseModel,
		file.HairColor,
		file.FixationType,
		file.LastPurchaseDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create technical file: %w", err)
	}
	return nil
}

// FindTechnicalFile returns nil, nil when the contact has no file yet.
func (r *pgContactRepository) FindTechnicalFile(ctx context.Context, contactID string) (*model.TechnicalFile, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	id, err := parseID(contactID)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT modelo_base, cor_cabelo, tipo_fixacao, data_ultima_compra_protese
		FROM ficha_tecnica_protese WHERE contato_id = $1`
	file := model.TechnicalFile{ContactID: contactID}
	err = postgres.Conn(ctx, r.pool).QueryRow(ctx, q, id).Scan(
		&file.BaseModel,
		&file.HairColor,
		&file.FixationType,
		&file.LastPurchaseDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find technical file: %w", err)
	}
	return &file, nil
}

func (r *pgContactRepository) FindMemories(ctx context.Context, contactID string) ([]model.MemoryNote, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	id, err := parseID(contactID)
	if err != nil {
		return nil, err
	}

	const q = `
		SELECT id, categoria, conteudo, relevancia, created_at
		FROM memory_long WHERE contato_id = $1
		ORDER BY relevancia DESC, created_at DESC`
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	memories := make([]model.MemoryNote, 0)
	for rows.Next() {
		var note model.MemoryNote
		var noteID uuid.UUID
		if err := rows.Scan(&noteID, &note.Category, &note.Content, &note.Relevance, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to decode memory: %w", err)
		}
		note.ID = noteID.String()
		note.ContactID = contactID
		memories = append(memories, note)
	}
	return memories, rows.Err()
}

func (r *pgContactRepository) ExecuteTransaction(ctx context.Context, fn postgres.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
