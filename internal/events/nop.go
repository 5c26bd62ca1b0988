package events

// NopEmitter discards every event; mesh.NewController installs it
// automatically when the caller passes a nil Emitter.
type NopEmitter struct{}

// Emit does nothing.
func (NopEmitter) Emit(EventType, interface{}) {}

// Close does nothing and returns nil.
func (NopEmitter) Close() error { return nil }
