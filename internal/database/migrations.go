package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'user',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS role_permissions (
		role VARCHAR(50) NOT NULL,
		permission VARCHAR(100) NOT NULL,
		PRIMARY KEY (role, permission)
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		alias VARCHAR(255) NOT NULL,
		bundle VARCHAR(50) NOT NULL DEFAULT 'sms'
	)`,

	`CREATE TABLE IF NOT EXISTS lead_lists (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		alias VARCHAR(255) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id BIGSERIAL PRIMARY KEY,
		first_name VARCHAR(255) NOT NULL DEFAULT '',
		last_name VARCHAR(255) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		mobile VARCHAR(50) NOT NULL DEFAULT '',
		fields JSONB NOT NULL DEFAULT '{}',
		do_not_contact BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id UUID REFERENCES users(id) ON DELETE SET NULL,
		date_added TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS contact_list_xref (
		list_id BIGINT NOT NULL REFERENCES lead_lists(id) ON DELETE CASCADE,
		contact_id BIGINT NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
		PRIMARY KEY (list_id, contact_id)
	)`,

	`CREATE TABLE IF NOT EXISTS sms_messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(190) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		language VARCHAR(20) NOT NULL DEFAULT 'en',
		message TEXT NOT NULL,
		sms_type VARCHAR(20) NOT NULL DEFAULT 'template',
		category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
		is_published BOOLEAN NOT NULL DEFAULT FALSE,
		publish_up TIMESTAMP WITH TIME ZONE,
		publish_down TIMESTAMP WITH TIME ZONE,
		sent_count INT NOT NULL DEFAULT 0,
		created_by UUID NOT NULL REFERENCES users(id),
		created_by_user VARCHAR(255) NOT NULL DEFAULT '',
		checked_out TIMESTAMP WITH TIME ZONE,
		checked_out_by UUID REFERENCES users(id) ON DELETE SET NULL,
		date_added TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		date_modified TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sms_messages_created_by ON sms_messages(created_by)`,

	`CREATE TABLE IF NOT EXISTS sms_message_list_xref (
		sms_id UUID NOT NULL REFERENCES sms_messages(id) ON DELETE CASCADE,
		list_id BIGINT NOT NULL REFERENCES lead_lists(id) ON DELETE CASCADE,
		PRIMARY KEY (sms_id, list_id)
	)`,

	`CREATE TABLE IF NOT EXISTS sms_message_stats (
		id BIGSERIAL PRIMARY KEY,
		sms_id UUID REFERENCES sms_messages(id) ON DELETE SET NULL,
		contact_id BIGINT REFERENCES contacts(id) ON DELETE SET NULL,
		date_sent TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		is_failed BOOLEAN NOT NULL DEFAULT FALSE,
		tracking_hash VARCHAR(64) NOT NULL,
		source VARCHAR(50) NOT NULL DEFAULT '',
		source_id VARCHAR(64) NOT NULL DEFAULT ''
	)`,

	`CREATE INDEX IF NOT EXISTS idx_sms_message_stats_sms ON sms_message_stats(sms_id, date_sent)`,

	`CREATE TABLE IF NOT EXISTS pages (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		alias VARCHAR(255) NOT NULL,
		is_published BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS assets (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		alias VARCHAR(255) NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS page_redirects (
		id BIGSERIAL PRIMARY KEY,
		redirect_id VARCHAR(32) UNIQUE NOT NULL,
		url TEXT UNIQUE NOT NULL,
		hits INT NOT NULL DEFAULT 0,
		unique_hits INT NOT NULL DEFAULT 0,
		date_added TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS channel_url_trackables (
		redirect_id BIGINT NOT NULL REFERENCES page_redirects(id) ON DELETE CASCADE,
		channel VARCHAR(50) NOT NULL,
		channel_id UUID NOT NULL,
		hits INT NOT NULL DEFAULT 0,
		unique_hits INT NOT NULL DEFAULT 0,
		PRIMARY KEY (redirect_id, channel, channel_id)
	)`,

	`CREATE TABLE IF NOT EXISTS page_hits (
		id BIGSERIAL PRIMARY KEY,
		redirect_id BIGINT NOT NULL REFERENCES page_redirects(id) ON DELETE CASCADE,
		contact_id BIGINT REFERENCES contacts(id) ON DELETE SET NULL,
		source VARCHAR(50) NOT NULL DEFAULT '',
		source_id UUID,
		tracking_hash VARCHAR(64) NOT NULL DEFAULT '',
		url TEXT NOT NULL,
		date_hit TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		user_id UUID,
		user_name VARCHAR(255) NOT NULL DEFAULT '',
		bundle VARCHAR(50) NOT NULL,
		object VARCHAR(50) NOT NULL,
		object_id VARCHAR(64) NOT NULL,
		action VARCHAR(50) NOT NULL,
		details JSONB NOT NULL DEFAULT '{}',
		ip_address VARCHAR(64) NOT NULL DEFAULT '',
		date_added TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_audit_log_object ON audit_log(bundle, object, object_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
