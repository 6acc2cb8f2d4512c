package worker

// Subscriber registers its event handlers with a dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartSubscribers registers every non-nil subscriber.
func StartSubscribers(subscribers ...Subscriber) {
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.RegisterHandlers()
	}
}
