package dataaccess

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/v0bot/pkg/custom"
	"github.com/Jacobbrewer1/v0bot/pkg/entities"
	"github.com/Jacobbrewer1/v0bot/pkg/logging"
)

// SQLiteDal stores the mappings in the reaction_roles and reaction_role_pairs tables.
type SQLiteDal struct {
	l  *slog.Logger
	db *sql.DB
}

// NewSQLiteDal creates a sqlite backed dal. The schema must already be migrated.
func NewSQLiteDal(l *slog.Logger, db *sql.DB) *SQLiteDal {
	return &SQLiteDal{
		l:  l.With(slog.String(logging.KeyDal, roleMappingDalName)),
		db: db,
	}
}

func (d *SQLiteDal) Load(ctx context.Context) (records map[string]*entities.RoleMapping, err error) {
	done := observe(BackendSQLite, "load")
	defer func() { done(err) }()

	rows, err := d.db.QueryContext(ctx, `
		SELECT message_id, channel_id, channel_name, title, description, color, footer
		FROM reaction_roles`)
	if err != nil {
		return nil, fmt.Errorf("error querying reaction roles: %w", err)
	}
	defer rows.Close() // nolint:errcheck

	records = make(map[string]*entities.RoleMapping)
	for rows.Next() {
		var (
			id string
			m  entities.RoleMapping
		)
		if err := rows.Scan(&id, &m.ChannelID, &m.ChannelName, &m.Embed.Title, &m.Embed.Description, &m.Embed.Color, &m.Embed.Footer); err != nil {
			return nil, fmt.Errorf("error scanning reaction role: %w", err)
		}
		records[id] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading reaction roles: %w", err)
	}

	pairs, err := d.db.QueryContext(ctx, `
		SELECT message_id, emoji, role_id
		FROM reaction_role_pairs
		ORDER BY message_id, position`)
	if err != nil {
		return nil, fmt.Errorf("error querying reaction role pairs: %w", err)
	}
	defer pairs.Close() // nolint:errcheck

	for pairs.Next() {
		var (
			id string
			p  entities.RolePair
		)
		if err := pairs.Scan(&id, &p.Emoji, &p.RoleID); err != nil {
			return nil, fmt.Errorf("error scanning reaction role pair: %w", err)
		}
		m, ok := records[id]
		if !ok {
			d.l.Warn("Orphaned reaction role pair", slog.String(logging.KeyMessage, id))
			continue
		}
		m.Pairs = append(m.Pairs, p)
	}
	if err := pairs.Err(); err != nil {
		return nil, fmt.Errorf("error reading reaction role pairs: %w", err)
	}

	return records, nil
}

func (d *SQLiteDal) Save(ctx context.Context, messageID string, mapping *entities.RoleMapping) (err error) {
	done := observe(BackendSQLite, "save")
	defer func() { done(err) }()

	return d.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reaction_roles (message_id, channel_id, channel_name, title, description, color, footer, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (message_id) DO UPDATE SET
				channel_id = excluded.channel_id,
				channel_name = excluded.channel_name,
				title = excluded.title,
				description = excluded.description,
				color = excluded.color,
				footer = excluded.footer,
				updated_at = excluded.updated_at`,
			messageID, mapping.ChannelID, mapping.ChannelName,
			mapping.Embed.Title, mapping.Embed.Description, mapping.Embed.Color, mapping.Embed.Footer,
			custom.Now().String(),
		)
		if err != nil {
			return fmt.Errorf("error upserting reaction role: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM reaction_role_pairs WHERE message_id = ?`, messageID); err != nil {
			return fmt.Errorf("error clearing reaction role pairs: %w", err)
		}

		for pos, p := range mapping.Pairs {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reaction_role_pairs (message_id, position, emoji, role_id)
				VALUES (?, ?, ?, ?)`,
				messageID, pos, p.Emoji, p.RoleID,
			)
			if err != nil {
				return fmt.Errorf("error inserting reaction role pair: %w", err)
			}
		}
		return nil
	})
}

func (d *SQLiteDal) Delete(ctx context.Context, messageID string) (err error) {
	done := observe(BackendSQLite, "delete")
	defer func() { done(err) }()

	return d.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM reaction_role_pairs WHERE message_id = ?`, messageID); err != nil {
			return fmt.Errorf("error deleting reaction role pairs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reaction_roles WHERE message_id = ?`, messageID); err != nil {
			return fmt.Errorf("error deleting reaction role: %w", err)
		}
		return nil
	})
}

// UpdatedAt returns when the mapping of a message was last saved.
func (d *SQLiteDal) UpdatedAt(ctx context.Context, messageID string) (custom.Datetime, error) {
	var at custom.Datetime
	err := d.db.QueryRowContext(ctx, `SELECT updated_at FROM reaction_roles WHERE message_id = ?`, messageID).Scan(&at)
	if err != nil {
		return custom.Datetime{}, fmt.Errorf("error getting reaction role update time: %w", err)
	}
	return at, nil
}

func (d *SQLiteDal) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.l.Error("Error rolling back transaction", slog.String(logging.KeyError, rbErr.Error()))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func (d *SQLiteDal) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("error pinging sqlite: %w", err)
	}
	return nil
}

func (d *SQLiteDal) Close(_ context.Context) error {
	return d.db.Close()
}
