package trace

// An EventFilter decides whether an event is worth transforming and
// writing. If it returns true, the event proceeds through the pipeline.
type EventFilter func(e Event) bool

// KeepKinds returns a filter that keeps only events of the listed kinds.
func KeepKinds(kinds ...Kind) EventFilter {
	return func(e Event) bool {
		for _, k := range kinds {
			if e.Kind == k {
				return true
			}
		}

		return false
	}
}

// KeepAll keeps every event.
func KeepAll() EventFilter {
	return func(Event) bool { return true }
}
