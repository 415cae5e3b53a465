package pushcomm

import (
	"context"

	"github.com/coregx/pushcomm/model"
)

// VerifyChannelAlias announces that the signing channel is also known as
// req.ChannelAddress on another chain. Nothing is stored; the ChannelAlias
// event carries the home chain name and id from the Registry.
func (d *Directory) VerifyChannelAlias(ctx context.Context, req ChannelAliasRequest) (*Receipt, error) {
	if err := invalidArgument("invalid channel alias", req.Validate()); err != nil {
		return nil, err
	}

	return d.execute(ctx, "verifyChannelAlias", []model.Location{model.RegistryLocation()}, func(tx *txn) error {
		reg, err := loadRegistry(tx)
		if err != nil {
			return err
		}
		return tx.emit(model.EventChannelAlias, model.ChannelAliasEvent{
			ChainName:      reg.ChainName,
			ChainID:        reg.ChainID,
			Channel:        req.Signer,
			ChannelAddress: req.ChannelAddress,
		})
	})
}
