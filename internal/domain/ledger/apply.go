package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/example/eventactor/internal/core"
)

// Apply is the core.Applier[Payload, string] every ledger actor is built
// with. It decodes PayloadBytes by TypeCode and folds the event into
// Payload, driven by the core's replay loop.
func Apply(payload *Payload, event core.FullyEvent[string]) error {
	switch event.TypeCode {
	case EventOpened:
		var data Opened
		if err := json.Unmarshal(event.PayloadBytes, &data); err != nil {
			return fmt.Errorf("unmarshal %s: %w", EventOpened, err)
		}
		payload.Owner = data.Owner
		payload.Opened = true
		payload.Balance = 0
	case EventDeposited:
		var data Deposited
		if err := json.Unmarshal(event.PayloadBytes, &data); err != nil {
			return fmt.Errorf("unmarshal %s: %w", EventDeposited, err)
		}
		payload.Balance += data.Amount
	case EventWithdrawn:
		var data Withdrawn
		if err := json.Unmarshal(event.PayloadBytes, &data); err != nil {
			return fmt.Errorf("unmarshal %s: %w", EventWithdrawn, err)
		}
		payload.Balance -= data.Amount
	case EventClosed:
		payload.Opened = false
	default:
		return fmt.Errorf("unknown event type %q", event.TypeCode)
	}
	return nil
}
