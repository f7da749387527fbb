package tool

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type customerRow struct {
	bun.BaseModel `bun:"table:crm_customers,alias:cc"`

	Email     string    `bun:"email,pk"`
	Profile   []byte    `bun:"profile,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// CRM is the Postgres-backed customer record store the verification and
// action steps consult.
type CRM struct {
	db *bun.DB
}

func NewCRM(db *bun.DB) *CRM {
	return &CRM{db: db}
}

// Init creates the customers table when it does not exist yet.
func (c *CRM) Init(ctx context.Context) error {
	_, err := c.db.NewCreateTable().
		Model((*customerRow)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create crm_customers table: %w", err)
	}
	return nil
}

// Lookup fetches the stored profile for an email. A missing record is a
// result ("found": false), not an error; new customers are the norm.
func (c *CRM) Lookup(ctx context.Context, email string) (map[string]any, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}

	var row customerRow
	err := c.db.NewSelect().
		Model(&row).
		Where("email = ?", email).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{"found": false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer %s: %w", email, err)
	}

	var profile map[string]any
	if err := json.Unmarshal(row.Profile, &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile for %s: %w", email, err)
	}

	return map[string]any{
		"found":   true,
		"profile": profile,
	}, nil
}

// Save upserts a customer profile keyed by email.
func (c *CRM) Save(ctx context.Context, email string, profile map[string]any) (map[string]any, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	if len(profile) == 0 {
		return nil, errors.New("profile is empty")
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	row := customerRow{
		Email:     email,
		Profile:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	_, err = c.db.NewInsert().
		Model(&row).
		On("CONFLICT (email) DO UPDATE").
		Set("profile = EXCLUDED.profile").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("save customer %s: %w", email, err)
	}

	return map[string]any{"saved": true, "email": email}, nil
}
