package common

import (
	"errors"
	"vms/src/models"
	"vms/src/types"

	"gorm.io/gorm"
)

// BlacklistOverrideNote is appended to a visit created through
// force-register so the audit trail records that a warning was bypassed.
const BlacklistOverrideNote = "[ALERTA] Registro forzado: el visitante figura en la lista negra"

// ResolveBlacklistInput collapses the legacy email/document/phone request
// shapes and the canonical identifier pair into one canonical form. The
// explicit pair wins when both are present.
func ResolveBlacklistInput(body *types.CreateBlacklistRequestBody) (types.IdentifierType, string, error) {
	if body.Identifier != "" && body.IdentifierType != "" {
		return types.IdentifierType(body.IdentifierType), body.Identifier, nil
	}
	switch {
	case body.Email != "":
		return types.IDENTIFIER_EMAIL, body.Email, nil
	case body.Document != "":
		return types.IDENTIFIER_DOCUMENT, body.Document, nil
	case body.Phone != "":
		return types.IDENTIFIER_PHONE, body.Phone, nil
	}
	return "", "", errors.New("an identifier is required")
}

// FindActiveEntry looks up an active blacklist entry matching any of the
// given identifiers within the company. A nil entry with nil error means no
// hit.
func FindActiveEntry(tx *gorm.DB, companyId uint, identifiers ...string) (*models.BlacklistEntry, error) {
	values := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id != "" {
			values = append(values, id)
		}
	}
	if len(values) == 0 {
		return nil, nil
	}
	var entry models.BlacklistEntry
	err := tx.
		Where("company_id = ? AND is_active = ? AND identifier IN ?", companyId, true, values).
		First(&entry).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
