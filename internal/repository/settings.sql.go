package repository

import (
	"context"
)

const appSettingsColumns = `registration_enabled, current_version, update_description, has_update, updated_at`

func scanAppSettings(row scanner) (AppSettings, error) {
	var i AppSettings
	err := row.Scan(
		&i.RegistrationEnabled,
		&i.CurrentVersion,
		&i.UpdateDescription,
		&i.HasUpdate,
		&i.UpdatedAt,
	)
	return i, err
}

const getAppSettings = `-- name: GetAppSettings :one
SELECT ` + appSettingsColumns + ` FROM app_settings WHERE id`

// GetAppSettings reads the single settings row seeded by the migration.
func (q *Queries) GetAppSettings(ctx context.Context) (AppSettings, error) {
	row := q.db.QueryRowContext(ctx, getAppSettings)
	return scanAppSettings(row)
}

const toggleRegistration = `-- name: ToggleRegistration :one
UPDATE app_settings SET
    registration_enabled = NOT registration_enabled,
    updated_at = NOW()
WHERE id
RETURNING ` + appSettingsColumns

// ToggleRegistration flips the flag in one statement so concurrent toggles
// cannot both read the same old value.
func (q *Queries) ToggleRegistration(ctx context.Context) (AppSettings, error) {
	row := q.db.QueryRowContext(ctx, toggleRegistration)
	return scanAppSettings(row)
}

const updateAppVersion = `-- name: UpdateAppVersion :one
UPDATE app_settings SET
    current_version = $1,
    update_description = $2,
    has_update = TRUE,
    updated_at = NOW()
WHERE id
RETURNING ` + appSettingsColumns

type UpdateAppVersionParams struct {
	CurrentVersion    string
	UpdateDescription string
}

func (q *Queries) UpdateAppVersion(ctx context.Context, arg UpdateAppVersionParams) (AppSettings, error) {
	row := q.db.QueryRowContext(ctx, updateAppVersion, arg.CurrentVersion, arg.UpdateDescription)
	return scanAppSettings(row)
}
