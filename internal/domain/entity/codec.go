package entity

import (
	"encoding/json"
	"fmt"

	"github.com/meridianhq/searchcore/internal/domain"
	"github.com/meridianhq/searchcore/internal/domain/module"
)

// TypeSearchSetting names the settings alias rows in serialized changes.
// It is a source type, not a module: its documents live under UserProfile.
const TypeSearchSetting = "SearchSetting"

// Decode parses a serialized entity by type name. Type names are the module
// names plus TypeSearchSetting.
func Decode(typ string, raw []byte) (Entity, error) {
	e, err := newByType(typ)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("decode %s entity: %w", typ, err)
	}
	return e, nil
}

func newByType(typ string) (Entity, error) {
	switch typ {
	case string(module.AccountProfile):
		return &Account{}, nil
	case string(module.UserProfile):
		return &UserProfile{}, nil
	case TypeSearchSetting:
		return &SearchSetting{}, nil
	case string(module.Announcement):
		return &Announcement{}, nil
	case string(module.ResearchReport):
		return &ResearchReport{}, nil
	case string(module.Webinar):
		return &Webinar{}, nil
	case string(module.Webcast):
		return &Webcast{}, nil
	case string(module.CorporateAccess):
		return &CorporateAccessEvent{}, nil
	case string(module.Contact):
		return &Contact{}, nil
	case string(module.DistributionList):
		return &DistributionList{}, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModule, typ)
}
