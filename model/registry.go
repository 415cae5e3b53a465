package model

import "time"

// Registry is the singleton configuration record of the directory.
//
// It is created once by initialization and afterwards changes only through
// administrator operations. Admin is never the zero identity.
type Registry struct {
	Governance    Identity  `json:"governance"`
	Admin         Identity  `json:"pushChannelAdmin"`
	Paused        bool      `json:"paused"`
	ChainID       uint64    `json:"chainId"`
	ChainName     string    `json:"chainName"`
	TokenAddress  Identity  `json:"pushTokenAddress"`
	CoreAddress   Identity  `json:"pushCoreAddress"`
	UserCount     uint64    `json:"userCount"` // subscribers ever activated
	InitializedAt time.Time `json:"initializedAt"`
}

// NewRegistry creates an unpaused registry governed and administered by admin.
func NewRegistry(admin Identity, chainID uint64, chainName string, now time.Time) Registry {
	return Registry{
		Governance:    admin,
		Admin:         admin,
		Paused:        false,
		ChainID:       chainID,
		ChainName:     chainName,
		InitializedAt: now,
	}
}

// IsAdmin reports whether signer is the current administrator.
func (r Registry) IsAdmin(signer Identity) bool {
	return !signer.IsZero() && r.Admin == signer
}
