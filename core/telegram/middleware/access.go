package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// AdminIDs is the static allow-list of privileged user identifiers.
	AdminIDs map[int64]struct{}
	OnReject tele.HandlerFunc
}

func (o AdminOptions) allowed(userID int64) bool {
	_, ok := o.AdminIDs[userID]
	return ok
}

// AdminOnlyMiddleware ensures that only allow-listed users can invoke downstream handlers.
// An empty allow-list rejects everyone rather than opening privileged commands up.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil || !opts.allowed(sender.ID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
