package pushcomm

import (
	"errors"

	"github.com/coregx/pushcomm/model"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultChainName labels the directory's home chain when Initialize is not
// given one.
const DefaultChainName = "Solana Mainnet"

// MaxChannelAddressLength bounds the foreign address accepted by VerifyChannelAlias, in bytes.
const MaxChannelAddressLength = 64

const maxChainNameLength = 64

var errZeroIdentity = errors.New("must not be the zero identity")

// notZero rejects the all-zero identity.
var notZero = validation.By(func(value interface{}) error {
	id, ok := value.(model.Identity)
	if !ok {
		return errors.New("must be an identity")
	}
	if id.IsZero() {
		return errZeroIdentity
	}
	return nil
})

// invalidArgument converts a validation failure into ErrCodeInvalidArgument.
func invalidArgument(message string, err error) error {
	if err == nil {
		return nil
	}
	return NewErrorWithCause(ErrCodeInvalidArgument, message, err)
}

// InitializeRequest creates the Registry.
type InitializeRequest struct {
	Signer    model.Identity `json:"-"`
	Admin     model.Identity `json:"admin"`
	ChainID   uint64         `json:"chainId"`
	ChainName string         `json:"chainName,omitempty"`
}

// Validate checks request arguments.
func (r InitializeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Admin, notZero),
		validation.Field(&r.ChainName, validation.Length(0, maxChainNameLength)),
	)
}

// SendNotificationRequest asks to notify Recipient on behalf of Channel.
type SendNotificationRequest struct {
	Signer    model.Identity `json:"-"`
	Channel   model.Identity `json:"channel"`
	Recipient model.Identity `json:"recipient"`
	Message   []byte         `json:"message"`
}

// NotificationSettingsRequest replaces Subscriber's settings for Channel.
type NotificationSettingsRequest struct {
	Subscriber model.Identity `json:"-"`
	Channel    model.Identity `json:"channel"`
	NotifID    uint64         `json:"notifId"`
	Settings   string         `json:"notifSettings"`
}

// Validate checks request arguments.
func (r NotificationSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Settings, validation.Length(0, model.MaxNotifSettingsLength)),
	)
}

// ChannelAliasRequest links the signing channel to an address on another chain.
type ChannelAliasRequest struct {
	Signer         model.Identity `json:"-"`
	ChannelAddress string         `json:"channelAddress"`
}

// Validate checks request arguments.
func (r ChannelAliasRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ChannelAddress, validation.Length(0, MaxChannelAddressLength)),
	)
}
