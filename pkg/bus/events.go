package bus

// Event names emitted by the configuration engine.
const (
	EventConfigLoaded        = "config.loaded"
	EventConfigReloaded      = "config.reloaded"
	EventConfigResolved      = "config.resolved"
	EventExtensionRegistered = "extension.registered"
	EventExtensionRejected   = "extension.rejected"
)

// BuildConfigLoadedEvent describes a cold configuration load from path.
func BuildConfigLoadedEvent(path string) Event {
	return Event{
		Name: EventConfigLoaded,
		Path: path,
	}
}

// BuildConfigReloadedEvent describes a forced reload from path.
func BuildConfigReloadedEvent(path string) Event {
	return Event{
		Name: EventConfigReloaded,
		Path: path,
	}
}

// BuildConfigResolvedEvent describes a completed resolution for scope.
func BuildConfigResolvedEvent(scope string, forced bool) Event {
	return Event{
		Name:  EventConfigResolved,
		Scope: scope,
		Metadata: map[string]any{
			"forced": forced,
		},
	}
}

// BuildExtensionRegisteredEvent describes an accepted registration at the
// given position in the scope's sequence.
func BuildExtensionRegisteredEvent(scope string, position int, kind string) Event {
	return Event{
		Name:  EventExtensionRegistered,
		Scope: scope,
		Metadata: map[string]any{
			"position": position,
			"kind":     kind,
		},
	}
}

// BuildExtensionRejectedEvent describes a rejected registration.
func BuildExtensionRejectedEvent(scope string, err error) Event {
	metadata := map[string]any{}
	if err != nil {
		metadata["error"] = err.Error()
	}
	return Event{
		Name:     EventExtensionRejected,
		Scope:    scope,
		Metadata: metadata,
	}
}
