package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS departments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		parent_id UUID REFERENCES departments(id),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_departments_code ON departments (code);`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		username VARCHAR(64) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		position VARCHAR(255) NOT NULL DEFAULT '',
		department_id UUID REFERENCES departments(id),
		permissions JSONB NOT NULL DEFAULT '[]'::jsonb,
		password_hash TEXT NOT NULL,
		blocked BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_users_username ON users (LOWER(username));`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions (user_id);`,
	`CREATE TABLE IF NOT EXISTS customers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		tax_id VARCHAR(64) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(64) NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		region VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_customers_code ON customers (code);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		number VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		customer_id UUID NOT NULL REFERENCES customers(id),
		department_id UUID REFERENCES departments(id),
		amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		start_at DATE NOT NULL,
		end_at DATE NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'DRAFT',
		notes TEXT NOT NULL DEFAULT '',
		created_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_number ON contracts (number);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_customer_id ON contracts (customer_id);`,
	`CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		code VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit VARCHAR(32) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_products_code ON products (LOWER(code));`,
	`CREATE TABLE IF NOT EXISTS price_bulletins (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		number VARCHAR(64) NOT NULL,
		region VARCHAR(64) NOT NULL,
		version INTEGER NOT NULL,
		valid_from DATE NOT NULL,
		valid_to DATE,
		status VARCHAR(16) NOT NULL DEFAULT 'DRAFT',
		source_job_id UUID,
		published_at TIMESTAMPTZ,
		created_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_price_bulletins_region_version ON price_bulletins (region, version);`,
	`CREATE INDEX IF NOT EXISTS idx_price_bulletins_lookup ON price_bulletins (region, status, valid_from);`,
	`CREATE TABLE IF NOT EXISTS price_bulletin_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		bulletin_id UUID NOT NULL REFERENCES price_bulletins(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id),
		unit_price NUMERIC(18,4) NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_price_bulletin_items_product ON price_bulletin_items (bulletin_id, product_id);`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		number VARCHAR(64) NOT NULL,
		customer_id UUID NOT NULL REFERENCES customers(id),
		contract_id UUID REFERENCES contracts(id),
		region VARCHAR(64) NOT NULL,
		order_date DATE NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'DRAFT',
		total NUMERIC(18,2) NOT NULL DEFAULT 0,
		rejection_reason TEXT,
		decided_by_user_id UUID REFERENCES users(id),
		decided_at TIMESTAMPTZ,
		created_by_user_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_purchase_orders_number ON purchase_orders (number);`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_orders_status ON purchase_orders (status);`,
	`CREATE TABLE IF NOT EXISTS purchase_lines (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		product_id UUID NOT NULL REFERENCES products(id),
		quantity NUMERIC(18,3) NOT NULL,
		unit_price NUMERIC(18,4) NOT NULL DEFAULT 0,
		amount NUMERIC(18,2) NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_lines_order_id ON purchase_lines (order_id);`,
	`CREATE TABLE IF NOT EXISTS price_import_jobs (
		id UUID PRIMARY KEY,
		file_name VARCHAR(255) NOT NULL,
		format VARCHAR(16) NOT NULL,
		content BYTEA NOT NULL,
		region VARCHAR(64) NOT NULL,
		valid_from DATE NOT NULL,
		status VARCHAR(16) NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		bulletin_id UUID REFERENCES price_bulletins(id) ON DELETE SET NULL,
		created_by UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_price_import_jobs_status ON price_import_jobs (status);`,
	`CREATE TABLE IF NOT EXISTS price_import_rows (
		id UUID PRIMARY KEY,
		job_id UUID NOT NULL REFERENCES price_import_jobs(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		product_code VARCHAR(64) NOT NULL DEFAULT '',
		product_name TEXT NOT NULL DEFAULT '',
		unit VARCHAR(32) NOT NULL DEFAULT '',
		unit_price NUMERIC(18,4) NOT NULL DEFAULT 0,
		matched_product_id UUID REFERENCES products(id),
		suggestions JSONB NOT NULL DEFAULT '[]'::jsonb,
		status VARCHAR(16) NOT NULL,
		price_check BOOLEAN NOT NULL DEFAULT FALSE,
		note TEXT NOT NULL DEFAULT '',
		overridden BOOLEAN NOT NULL DEFAULT FALSE,
		excluded BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_price_import_rows_line ON price_import_rows (job_id, line_no);`,
	`ALTER TABLE price_import_rows ADD COLUMN IF NOT EXISTS price_check BOOLEAN NOT NULL DEFAULT FALSE;`,
	`ALTER TABLE price_import_rows ADD COLUMN IF NOT EXISTS note TEXT NOT NULL DEFAULT '';`,
	`ALTER TABLE price_import_jobs DROP CONSTRAINT IF EXISTS price_import_jobs_bulletin_id_fkey;`,
	`ALTER TABLE price_import_jobs ADD CONSTRAINT price_import_jobs_bulletin_id_fkey
		FOREIGN KEY (bulletin_id) REFERENCES price_bulletins(id) ON DELETE SET NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
