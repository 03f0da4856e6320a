package order

import (
	"github.com/go-faster/errors"
)

// GenericErrorMessage is shown when a failure carries no usable message.
const GenericErrorMessage = "Erreur lors de la commande"

// ErrMissingCheckoutURL is returned when the orders API accepted an order but
// did not provide a checkout URL to redirect to.
var ErrMissingCheckoutURL = errors.New("order created without checkout url")

const missingCheckoutMessage = "Commande créée mais le lien de paiement est indisponible"

// userMessager is satisfied by errors that carry a message meant for the end user.
type userMessager interface {
	UserMessage() string
}

// UserMessage normalises err to a human-readable string, preferring a message
// supplied by the orders API and falling back to GenericErrorMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCheckoutURL) {
		return missingCheckoutMessage
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return GenericErrorMessage
}
