package pushcomm

import (
	"context"
	"errors"

	"github.com/coregx/pushcomm/model"
)

// Initialize creates the Registry with governance and admin set to req.Admin
// and the pause flag cleared. It succeeds exactly once per store.
func (d *Directory) Initialize(ctx context.Context, req InitializeRequest) (*Receipt, error) {
	if err := invalidArgument("invalid initialize request", req.Validate()); err != nil {
		return nil, err
	}
	if req.ChainName == "" {
		req.ChainName = DefaultChainName
	}

	return d.execute(ctx, "initialize", []model.Location{model.RegistryLocation()}, func(tx *txn) error {
		found, err := tx.exists(model.RegistryLocation())
		if err != nil {
			return err
		}
		if found {
			return ErrAlreadyInitialized
		}

		reg := model.NewRegistry(req.Admin, req.ChainID, req.ChainName, tx.now)
		d.logger.Infof("Initializing directory: admin=%s chain_id=%d signer=%s", req.Admin, req.ChainID, req.Signer)
		return putRegistry(tx, reg)
	})
}

// SetPushTokenAddress records the token address. Admin only.
func (d *Directory) SetPushTokenAddress(ctx context.Context, signer, address model.Identity) (*Receipt, error) {
	return d.updateRegistry(ctx, "setPushTokenAddress", signer, func(reg *model.Registry) error {
		reg.TokenAddress = address
		return nil
	})
}

// SetGovernanceAddress records the governance identity. Admin only.
func (d *Directory) SetGovernanceAddress(ctx context.Context, signer, address model.Identity) (*Receipt, error) {
	return d.updateRegistry(ctx, "setGovernanceAddress", signer, func(reg *model.Registry) error {
		reg.Governance = address
		return nil
	})
}

// SetCoreAddress records the core program address. Admin only.
func (d *Directory) SetCoreAddress(ctx context.Context, signer, address model.Identity) (*Receipt, error) {
	return d.updateRegistry(ctx, "setCoreAddress", signer, func(reg *model.Registry) error {
		reg.CoreAddress = address
		return nil
	})
}

// PauseContract sets the pause flag. Admin only.
//
// Pausing an already paused directory is a no-op unless the directory was
// built WithStrictPause, in which case it fails with ErrAlreadyPaused.
func (d *Directory) PauseContract(ctx context.Context, signer model.Identity) (*Receipt, error) {
	return d.updateRegistry(ctx, "pauseContract", signer, func(reg *model.Registry) error {
		if reg.Paused {
			if d.strictPause {
				return ErrAlreadyPaused
			}
			return errNoChange
		}
		reg.Paused = true
		return nil
	})
}

// UnpauseContract clears the pause flag. Admin only.
//
// Mirrors PauseContract: a no-op on an unpaused directory, or ErrNotPaused
// under WithStrictPause.
func (d *Directory) UnpauseContract(ctx context.Context, signer model.Identity) (*Receipt, error) {
	return d.updateRegistry(ctx, "unpauseContract", signer, func(reg *model.Registry) error {
		if !reg.Paused {
			if d.strictPause {
				return ErrNotPaused
			}
			return errNoChange
		}
		reg.Paused = false
		return nil
	})
}

// TransferAdminOwnership hands the admin role to newAdmin.
//
// Checks run in order: a paused directory rejects the call for every signer
// with ErrContractPaused, then a non-admin signer gets ErrUnauthorized, then a
// zero newAdmin gets ErrInvalidArgument.
func (d *Directory) TransferAdminOwnership(ctx context.Context, signer, newAdmin model.Identity) (*Receipt, error) {
	return d.execute(ctx, "transferAdminOwnership", []model.Location{model.RegistryLocation()}, func(tx *txn) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		if reg.Paused {
			return ErrContractPaused
		}
		if !reg.IsAdmin(signer) {
			return ErrUnauthorized
		}
		if newAdmin.IsZero() {
			return invalidArgument("new admin", errZeroIdentity)
		}

		d.logger.Infof("Transferring admin ownership: %s -> %s", reg.Admin, newAdmin)
		reg.Admin = newAdmin
		return putRegistry(tx, reg)
	})
}

// errNoChange ends an admin update successfully without writing.
var errNoChange = errors.New("registry unchanged")

// updateRegistry runs an admin-gated mutation of the Registry.
func (d *Directory) updateRegistry(ctx context.Context, op string, signer model.Identity, mutate func(reg *model.Registry) error) (*Receipt, error) {
	return d.execute(ctx, op, []model.Location{model.RegistryLocation()}, func(tx *txn) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		if !reg.IsAdmin(signer) {
			return ErrUnauthorized
		}
		if err := mutate(&reg); err != nil {
			if errors.Is(err, errNoChange) {
				return nil
			}
			return err
		}
		return putRegistry(tx, reg)
	})
}
